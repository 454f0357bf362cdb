package rrd_test

import (
	"bytes"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/chunklake/chunklake/chunk"
	"github.com/chunklake/chunklake/rrd"
)

func fakeStoreID() rrd.StoreId {
	return rrd.StoreId{Kind: "recording", RecordingId: "rec-1", ApplicationId: "app-1", HasApplicationId: true}
}

func fakeMessages() []messageBuilder {
	storeID := fakeStoreID()
	return []messageBuilder{
		{kind: rrd.KindSetStoreInfo, setStoreInfo: &rrd.SetStoreInfo{
			RowID: chunk.NewRowId(), StoreID: storeID, StoreSource: "go-sdk",
		}},
		{kind: rrd.KindArrowMsg, arrowMsg: &rrd.ArrowMsg{
			StoreID: storeID, TableBytes: []byte("pretend-arrow-ipc-bytes"),
		}},
		{kind: rrd.KindBlueprintActivationCommand, blueprintActivation: &rrd.BlueprintActivationCommand{
			BlueprintID: storeID, MakeActive: true, MakeDefault: true,
		}},
	}
}

type messageBuilder struct {
	kind                 rrd.MessageKind
	setStoreInfo         *rrd.SetStoreInfo
	arrowMsg             *rrd.ArrowMsg
	blueprintActivation  *rrd.BlueprintActivationCommand
}

func encodeAll(t *testing.T, opts rrd.Options, messages []messageBuilder, withEOS bool) []byte {
	t.Helper()
	var buf bytes.Buffer
	enc := rrd.NewEncoder(&buf, rrd.Version{Major: 0, Minor: 1, Patch: 0}, opts)
	for _, m := range messages {
		var err error
		switch m.kind {
		case rrd.KindSetStoreInfo:
			_, err = enc.AppendSetStoreInfo(*m.setStoreInfo)
		case rrd.KindArrowMsg:
			_, err = enc.AppendArrowMsg(*m.arrowMsg)
		case rrd.KindBlueprintActivationCommand:
			_, err = enc.AppendBlueprintActivationCommand(*m.blueprintActivation)
		}
		require.NoError(t, err)
	}
	if withEOS {
		require.NoError(t, enc.Finish())
	}
	return buf.Bytes()
}

func decodeAll(t *testing.T, data []byte) []*rrd.Message {
	t.Helper()
	it := rrd.NewLazyIterator(bytes.NewReader(data))
	var out []*rrd.Message
	for {
		msg, err := it.Next()
		require.NoError(t, err)
		if msg == nil {
			break
		}
		out = append(out, msg)
	}
	return out
}

func assertDecoded(t *testing.T, messages []messageBuilder, decoded []*rrd.Message) {
	t.Helper()
	require.Len(t, decoded, len(messages))
	for i, m := range messages {
		switch m.kind {
		case rrd.KindSetStoreInfo:
			require.NotNil(t, decoded[i].SetStoreInfo)
			assert.Equal(t, m.setStoreInfo.StoreID, decoded[i].SetStoreInfo.StoreID)
			assert.Equal(t, m.setStoreInfo.RowID, decoded[i].SetStoreInfo.RowID)
		case rrd.KindArrowMsg:
			require.NotNil(t, decoded[i].ArrowMsg)
			assert.Equal(t, m.arrowMsg.StoreID, decoded[i].ArrowMsg.StoreID)
			assert.Equal(t, m.arrowMsg.TableBytes, decoded[i].ArrowMsg.TableBytes)
		case rrd.KindBlueprintActivationCommand:
			require.NotNil(t, decoded[i].BlueprintActivationCommand)
			assert.Equal(t, *m.blueprintActivation, *decoded[i].BlueprintActivationCommand)
		}
	}
}

func TestRoundTripUncompressedProtobuf(t *testing.T) {
	messages := fakeMessages()
	data := encodeAll(t, rrd.ProtobufUncompressed, messages, true)
	assertDecoded(t, messages, decodeAll(t, data))
}

func TestRoundTripLZ4Compressed(t *testing.T) {
	messages := fakeMessages()
	data := encodeAll(t, rrd.ProtobufCompressed, messages, true)
	assertDecoded(t, messages, decodeAll(t, data))
}

func TestRoundTripByteAtATime(t *testing.T) {
	messages := fakeMessages()
	data := encodeAll(t, rrd.ProtobufCompressed, messages, true)

	dec := rrd.NewDecoder()
	var decoded []*rrd.Message
	for i := 0; i < len(data); i++ {
		dec.PushByteChunk(data[i : i+1])
		for {
			msg, err := dec.TryRead()
			require.NoError(t, err)
			if msg == nil {
				break
			}
			decoded = append(decoded, msg)
		}
	}
	assertDecoded(t, messages, decoded)
}

func TestConcatenatedStreamsWithEOS(t *testing.T) {
	messages := fakeMessages()
	part1 := encodeAll(t, rrd.ProtobufUncompressed, messages, true)
	part2 := encodeAll(t, rrd.ProtobufUncompressed, messages, true)

	decoded := decodeAll(t, append(part1, part2...))
	assertDecoded(t, append(append([]messageBuilder{}, messages...), messages...), decoded)
}

func TestConcatenatedStreamsWithoutEOS(t *testing.T) {
	messages := fakeMessages()
	part1 := encodeAll(t, rrd.ProtobufUncompressed, messages, false)
	part2 := encodeAll(t, rrd.ProtobufUncompressed, messages, false)

	decoded := decodeAll(t, append(part1, part2...))
	assertDecoded(t, append(append([]messageBuilder{}, messages...), messages...), decoded)
}

func TestLegacyMessageBeforeSetStoreInfoIsDropped(t *testing.T) {
	storeID := fakeStoreID()
	legacyStoreID := storeID
	legacyStoreID.HasApplicationId = false
	legacyStoreID.ApplicationId = ""

	messages := []messageBuilder{
		{kind: rrd.KindArrowMsg, arrowMsg: &rrd.ArrowMsg{StoreID: legacyStoreID, TableBytes: []byte("early")}},
		{kind: rrd.KindSetStoreInfo, setStoreInfo: &rrd.SetStoreInfo{
			RowID: chunk.NewRowId(), StoreID: legacyStoreID, LegacyApplicationId: storeID.ApplicationId, HasLegacyApplicationId: true,
		}},
		{kind: rrd.KindArrowMsg, arrowMsg: &rrd.ArrowMsg{StoreID: legacyStoreID, TableBytes: []byte("late")}},
	}
	data := encodeAll(t, rrd.ProtobufUncompressed, messages, true)

	decoded := decodeAll(t, data)
	// The first ArrowMsg arrives before any SetStoreInfo has taught the
	// injector this recording's application id, so it's dropped; the
	// second ArrowMsg, after SetStoreInfo, survives with the id migrated.
	require.Len(t, decoded, 2)
	require.NotNil(t, decoded[0].SetStoreInfo)
	require.NotNil(t, decoded[1].ArrowMsg)
	assert.True(t, decoded[1].ArrowMsg.StoreID.HasApplicationId)
	assert.Equal(t, storeID.ApplicationId, decoded[1].ArrowMsg.StoreID.ApplicationId)
	assert.Equal(t, []byte("late"), decoded[1].ArrowMsg.TableBytes)
}

func TestStreamHeaderRejectsBadMagic(t *testing.T) {
	_, err := rrd.DecodeStreamHeader(bytes.Repeat([]byte{0}, rrd.StreamHeaderEncodedSize))
	require.Error(t, err)
}

func TestEagerIteratorFailsSynchronouslyOnGarbage(t *testing.T) {
	_, err := rrd.NewEagerIterator(bytes.NewReader([]byte("not an rrd stream at all, definitely")))
	require.Error(t, err)
}

func streamHeaderBytes(t *testing.T, version rrd.Version) []byte {
	t.Helper()
	buf := make([]byte, rrd.StreamHeaderEncodedSize)
	rrd.StreamHeader{Version: version, Options: rrd.ProtobufUncompressed}.EncodeTo(buf)
	return buf
}

func TestStreamHeaderAcceptsCompatibleVersion(t *testing.T) {
	header, err := rrd.DecodeStreamHeader(streamHeaderBytes(t, rrd.CurrentVersion))
	require.NoError(t, err)
	assert.Equal(t, rrd.CurrentVersion, header.Version)

	// Same major.minor, different patch: still compatible since major == 0
	// only pins major+minor, not patch.
	compatible := rrd.CurrentVersion
	compatible.Patch++
	_, err = rrd.DecodeStreamHeader(streamHeaderBytes(t, compatible))
	require.NoError(t, err)
}

// stepReader replays a fixed script of reads: a nil step reports io.EOF
// without consuming it (simulating a reader with nothing available right
// now), a non-nil step returns that chunk. Once the script is exhausted, it
// reports io.EOF forever.
type stepReader struct {
	steps [][]byte
	i     int
}

func (r *stepReader) Read(p []byte) (int, error) {
	if r.i >= len(r.steps) {
		return 0, io.EOF
	}
	step := r.steps[r.i]
	r.i++
	if step == nil {
		return 0, io.EOF
	}
	return copy(p, step), nil
}

func TestWaitForEOSIteratorSurvivesEOFThatLazyIteratorDoesNotSurviveWithout(t *testing.T) {
	messages := fakeMessages()[:2]

	var buf bytes.Buffer
	enc := rrd.NewEncoder(&buf, rrd.CurrentVersion, rrd.ProtobufUncompressed)
	_, err := enc.AppendSetStoreInfo(*messages[0].setStoreInfo)
	require.NoError(t, err)
	split := buf.Len()
	_, err = enc.AppendArrowMsg(*messages[1].arrowMsg)
	require.NoError(t, err)

	// No Finish/EOS: the stream is left open, as if a file were still being
	// appended to. The first message's bytes arrive in one read, a read
	// reporting EOF follows (nothing available yet), and the second
	// message's bytes only show up on a later read.
	full := buf.Bytes()
	partA, partB := full[:split], full[split:]

	lazy := rrd.NewLazyIterator(&stepReader{steps: [][]byte{partA, nil}})
	msg, err := lazy.Next()
	require.NoError(t, err)
	require.NotNil(t, msg)
	msg, err = lazy.Next()
	require.NoError(t, err)
	assert.Nil(t, msg, "a plain iterator gives up at the first EOF instead of waiting for more bytes")

	tailing := rrd.NewLazyIteratorWaitForEOS(&stepReader{steps: [][]byte{partA, nil, partB}})
	msg, err = tailing.Next()
	require.NoError(t, err)
	require.NotNil(t, msg)
	msg, err = tailing.Next()
	require.NoError(t, err)
	require.NotNil(t, msg, "a wait-for-EOS iterator must keep polling past an intermediate EOF")
}

func TestStreamHeaderRejectsIncompatibleVersion(t *testing.T) {
	incompatibleMinor := rrd.CurrentVersion
	incompatibleMinor.Minor++
	_, err := rrd.DecodeStreamHeader(streamHeaderBytes(t, incompatibleMinor))
	require.Error(t, err)
	assert.True(t, rrd.ErrUnsupportedVersion.Is(err))

	alpha := rrd.CurrentVersion
	alpha.Meta = 0x80 // -alpha.0: always breaking, even though major.minor match exactly
	_, err = rrd.DecodeStreamHeader(streamHeaderBytes(t, alpha))
	require.Error(t, err)
	assert.True(t, rrd.ErrUnsupportedVersion.Is(err))
}
