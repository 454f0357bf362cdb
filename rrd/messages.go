package rrd

import (
	"fmt"

	"google.golang.org/protobuf/encoding/protowire"

	"github.com/chunklake/chunklake/chunk"
)

// StoreId identifies a recording or blueprint. ApplicationId is carried as
// an explicit-presence field (HasApplicationId) rather than an empty
// string, because a legacy producer omits it on StoreId entirely and
// relies on post-hoc migration from a SetStoreInfo seen earlier in the
// stream; see ApplicationIdInjector.
type StoreId struct {
	Kind          string
	RecordingId   string
	ApplicationId string
	HasApplicationId bool
}

// SetStoreInfo announces a store's identity. Old producers put
// ApplicationId here (LegacyApplicationId) instead of on StoreId.
type SetStoreInfo struct {
	RowID                chunk.RowId
	StoreID              StoreId
	LegacyApplicationId  string
	HasLegacyApplicationId bool
	StoreSource          string
}

// ArrowMsg carries one encoded chunk's worth of column data for StoreID.
// TableBytes is an opaque, already-serialized payload (produced by a chunk
// codec layered on top of this transport); rrd itself never inspects it.
type ArrowMsg struct {
	StoreID    StoreId
	TableBytes []byte
}

// BlueprintActivationCommand asks a viewer to switch to BlueprintID.
type BlueprintActivationCommand struct {
	BlueprintID StoreId
	MakeActive  bool
	MakeDefault bool
}

const (
	fieldStoreIdKind          = 1
	fieldStoreIdRecordingId   = 2
	fieldStoreIdApplicationId = 3

	fieldSetStoreInfoRowID               = 1
	fieldSetStoreInfoStoreID             = 2
	fieldSetStoreInfoLegacyApplicationId = 3
	fieldSetStoreInfoStoreSource         = 4

	fieldArrowMsgStoreID     = 1
	fieldArrowMsgTableBytes  = 2

	fieldBlueprintActivationID          = 1
	fieldBlueprintActivationMakeActive  = 2
	fieldBlueprintActivationMakeDefault = 3
)

func encodeStoreId(id StoreId) []byte {
	var buf []byte
	buf = protowire.AppendTag(buf, fieldStoreIdKind, protowire.BytesType)
	buf = protowire.AppendString(buf, id.Kind)
	buf = protowire.AppendTag(buf, fieldStoreIdRecordingId, protowire.BytesType)
	buf = protowire.AppendString(buf, id.RecordingId)
	if id.HasApplicationId {
		buf = protowire.AppendTag(buf, fieldStoreIdApplicationId, protowire.BytesType)
		buf = protowire.AppendString(buf, id.ApplicationId)
	}
	return buf
}

func decodeStoreId(data []byte) (StoreId, error) {
	var id StoreId
	for len(data) > 0 {
		num, typ, n := protowire.ConsumeTag(data)
		if n < 0 {
			return StoreId{}, ErrPayloadDecoding.New("store_id: malformed tag")
		}
		data = data[n:]
		switch num {
		case fieldStoreIdKind:
			v, n := protowire.ConsumeString(data)
			if n < 0 {
				return StoreId{}, ErrPayloadDecoding.New("store_id.kind")
			}
			id.Kind = v
			data = data[n:]
		case fieldStoreIdRecordingId:
			v, n := protowire.ConsumeString(data)
			if n < 0 {
				return StoreId{}, ErrPayloadDecoding.New("store_id.recording_id")
			}
			id.RecordingId = v
			data = data[n:]
		case fieldStoreIdApplicationId:
			v, n := protowire.ConsumeString(data)
			if n < 0 {
				return StoreId{}, ErrPayloadDecoding.New("store_id.application_id")
			}
			id.ApplicationId = v
			id.HasApplicationId = true
			data = data[n:]
		default:
			n := skipField(typ, data)
			if n < 0 {
				return StoreId{}, ErrPayloadDecoding.New("store_id: unknown field")
			}
			data = data[n:]
		}
	}
	return id, nil
}

func skipField(typ protowire.Type, data []byte) int {
	n := protowire.ConsumeFieldValue(0, typ, data)
	return n
}

// EncodeSetStoreInfo serializes m to its Protobuf-wire-compatible form.
func EncodeSetStoreInfo(m SetStoreInfo) []byte {
	var buf []byte
	buf = protowire.AppendTag(buf, fieldSetStoreInfoRowID, protowire.BytesType)
	buf = protowire.AppendBytes(buf, m.RowID.Bytes())
	buf = protowire.AppendTag(buf, fieldSetStoreInfoStoreID, protowire.BytesType)
	buf = protowire.AppendBytes(buf, encodeStoreId(m.StoreID))
	if m.HasLegacyApplicationId {
		buf = protowire.AppendTag(buf, fieldSetStoreInfoLegacyApplicationId, protowire.BytesType)
		buf = protowire.AppendString(buf, m.LegacyApplicationId)
	}
	buf = protowire.AppendTag(buf, fieldSetStoreInfoStoreSource, protowire.BytesType)
	buf = protowire.AppendString(buf, m.StoreSource)
	return buf
}

func DecodeSetStoreInfo(data []byte) (SetStoreInfo, error) {
	var m SetStoreInfo
	for len(data) > 0 {
		num, typ, n := protowire.ConsumeTag(data)
		if n < 0 {
			return SetStoreInfo{}, ErrPayloadDecoding.New("set_store_info: malformed tag")
		}
		data = data[n:]
		switch num {
		case fieldSetStoreInfoRowID:
			v, n := protowire.ConsumeBytes(data)
			if n < 0 {
				return SetStoreInfo{}, ErrPayloadDecoding.New("set_store_info.row_id")
			}
			rowID, err := chunk.RowIdFromBytes(v)
			if err != nil {
				return SetStoreInfo{}, ErrPayloadDecoding.New(err.Error())
			}
			m.RowID = rowID
			data = data[n:]
		case fieldSetStoreInfoStoreID:
			v, n := protowire.ConsumeBytes(data)
			if n < 0 {
				return SetStoreInfo{}, ErrPayloadDecoding.New("set_store_info.store_id")
			}
			id, err := decodeStoreId(v)
			if err != nil {
				return SetStoreInfo{}, err
			}
			m.StoreID = id
			data = data[n:]
		case fieldSetStoreInfoLegacyApplicationId:
			v, n := protowire.ConsumeString(data)
			if n < 0 {
				return SetStoreInfo{}, ErrPayloadDecoding.New("set_store_info.legacy_application_id")
			}
			m.LegacyApplicationId = v
			m.HasLegacyApplicationId = true
			data = data[n:]
		case fieldSetStoreInfoStoreSource:
			v, n := protowire.ConsumeString(data)
			if n < 0 {
				return SetStoreInfo{}, ErrPayloadDecoding.New("set_store_info.store_source")
			}
			m.StoreSource = v
			data = data[n:]
		default:
			n := skipField(typ, data)
			if n < 0 {
				return SetStoreInfo{}, ErrPayloadDecoding.New("set_store_info: unknown field")
			}
			data = data[n:]
		}
	}
	return m, nil
}

func EncodeArrowMsg(m ArrowMsg) []byte {
	var buf []byte
	buf = protowire.AppendTag(buf, fieldArrowMsgStoreID, protowire.BytesType)
	buf = protowire.AppendBytes(buf, encodeStoreId(m.StoreID))
	buf = protowire.AppendTag(buf, fieldArrowMsgTableBytes, protowire.BytesType)
	buf = protowire.AppendBytes(buf, m.TableBytes)
	return buf
}

func DecodeArrowMsg(data []byte) (ArrowMsg, error) {
	var m ArrowMsg
	for len(data) > 0 {
		num, typ, n := protowire.ConsumeTag(data)
		if n < 0 {
			return ArrowMsg{}, ErrPayloadDecoding.New("arrow_msg: malformed tag")
		}
		data = data[n:]
		switch num {
		case fieldArrowMsgStoreID:
			v, n := protowire.ConsumeBytes(data)
			if n < 0 {
				return ArrowMsg{}, ErrPayloadDecoding.New("arrow_msg.store_id")
			}
			id, err := decodeStoreId(v)
			if err != nil {
				return ArrowMsg{}, err
			}
			m.StoreID = id
			data = data[n:]
		case fieldArrowMsgTableBytes:
			v, n := protowire.ConsumeBytes(data)
			if n < 0 {
				return ArrowMsg{}, ErrPayloadDecoding.New("arrow_msg.table_bytes")
			}
			m.TableBytes = append([]byte(nil), v...)
			data = data[n:]
		default:
			n := skipField(typ, data)
			if n < 0 {
				return ArrowMsg{}, ErrPayloadDecoding.New("arrow_msg: unknown field")
			}
			data = data[n:]
		}
	}
	return m, nil
}

func EncodeBlueprintActivationCommand(m BlueprintActivationCommand) []byte {
	var buf []byte
	buf = protowire.AppendTag(buf, fieldBlueprintActivationID, protowire.BytesType)
	buf = protowire.AppendBytes(buf, encodeStoreId(m.BlueprintID))
	buf = protowire.AppendTag(buf, fieldBlueprintActivationMakeActive, protowire.VarintType)
	buf = protowire.AppendVarint(buf, boolToVarint(m.MakeActive))
	buf = protowire.AppendTag(buf, fieldBlueprintActivationMakeDefault, protowire.VarintType)
	buf = protowire.AppendVarint(buf, boolToVarint(m.MakeDefault))
	return buf
}

func DecodeBlueprintActivationCommand(data []byte) (BlueprintActivationCommand, error) {
	var m BlueprintActivationCommand
	for len(data) > 0 {
		num, typ, n := protowire.ConsumeTag(data)
		if n < 0 {
			return BlueprintActivationCommand{}, ErrPayloadDecoding.New("blueprint_activation_command: malformed tag")
		}
		data = data[n:]
		switch num {
		case fieldBlueprintActivationID:
			v, n := protowire.ConsumeBytes(data)
			if n < 0 {
				return BlueprintActivationCommand{}, ErrPayloadDecoding.New("blueprint_activation_command.blueprint_id")
			}
			id, err := decodeStoreId(v)
			if err != nil {
				return BlueprintActivationCommand{}, err
			}
			m.BlueprintID = id
			data = data[n:]
		case fieldBlueprintActivationMakeActive:
			v, n := protowire.ConsumeVarint(data)
			if n < 0 {
				return BlueprintActivationCommand{}, ErrPayloadDecoding.New("blueprint_activation_command.make_active")
			}
			m.MakeActive = v != 0
			data = data[n:]
		case fieldBlueprintActivationMakeDefault:
			v, n := protowire.ConsumeVarint(data)
			if n < 0 {
				return BlueprintActivationCommand{}, ErrPayloadDecoding.New("blueprint_activation_command.make_default")
			}
			m.MakeDefault = v != 0
			data = data[n:]
		default:
			n := skipField(typ, data)
			if n < 0 {
				return BlueprintActivationCommand{}, ErrPayloadDecoding.New("blueprint_activation_command: unknown field")
			}
			data = data[n:]
		}
	}
	return m, nil
}

func boolToVarint(b bool) uint64 {
	if b {
		return 1
	}
	return 0
}

func (s StoreId) String() string {
	if s.HasApplicationId {
		return fmt.Sprintf("%s/%s/%s", s.Kind, s.ApplicationId, s.RecordingId)
	}
	return fmt.Sprintf("%s/?/%s", s.Kind, s.RecordingId)
}
