package rrd

import (
	"fmt"

	"github.com/chunklake/chunklake/internal/warnonce"
)

// recordingKey identifies a StoreId without reference to its (possibly
// absent) ApplicationId, for use as a cache key while migrating legacy data.
type recordingKey struct {
	Kind        string
	RecordingId string
}

func keyOf(id StoreId) recordingKey {
	return recordingKey{Kind: id.Kind, RecordingId: id.RecordingId}
}

// ApplicationIdInjector backfills a missing ApplicationId on old messages
// that predate StoreId carrying one directly. A legacy producer put the
// application id on SetStoreInfo.LegacyApplicationId instead; every later
// message for that same recording only ever carries the bare StoreId.
type ApplicationIdInjector interface {
	// Learn records appID for the recording identified by id, so that
	// later calls to Inject for the same recording succeed.
	Learn(id StoreId, appID string)

	// Inject returns a copy of id with ApplicationId populated from a
	// previously Learned value, if one exists. ok is false if id already
	// carries an ApplicationId or if nothing has been Learned for it yet.
	Inject(id StoreId) (StoreId, bool)
}

// CachingApplicationIdInjector is the in-memory ApplicationIdInjector used
// by Decoder: one instance lives for the duration of a single stream.
type CachingApplicationIdInjector struct {
	seen map[recordingKey]string
}

func NewCachingApplicationIdInjector() *CachingApplicationIdInjector {
	return &CachingApplicationIdInjector{seen: map[recordingKey]string{}}
}

func (c *CachingApplicationIdInjector) Learn(id StoreId, appID string) {
	if c.seen == nil {
		c.seen = map[recordingKey]string{}
	}
	c.seen[keyOf(id)] = appID
}

func (c *CachingApplicationIdInjector) Inject(id StoreId) (StoreId, bool) {
	if id.HasApplicationId {
		return id, false
	}
	appID, ok := c.seen[keyOf(id)]
	if !ok {
		return id, false
	}
	id.ApplicationId = appID
	id.HasApplicationId = true
	return id, true
}

// migrateSetStoreInfo teaches injector about m's recording, using
// LegacyApplicationId if m's StoreID itself lacks one, then returns m with
// StoreID migrated in place.
func migrateSetStoreInfo(m SetStoreInfo, injector ApplicationIdInjector) SetStoreInfo {
	if !m.StoreID.HasApplicationId && m.HasLegacyApplicationId {
		m.StoreID.ApplicationId = m.LegacyApplicationId
		m.StoreID.HasApplicationId = true
	}
	injector.Learn(m.StoreID, m.StoreID.ApplicationId)
	return m
}

// migrateStoreId returns id migrated via injector, or id unchanged if it
// already carries an ApplicationId. ok is false when id is missing its
// ApplicationId and nothing has been learned for its recording yet — the
// caller must drop the enclosing message in that case.
func migrateStoreId(id StoreId, injector ApplicationIdInjector) (StoreId, bool) {
	if id.HasApplicationId {
		return id, true
	}
	migrated, learned := injector.Inject(id)
	return migrated, learned
}

func warnDroppedMessage(kind MessageKind, id StoreId) {
	warnonce.Warn(fmt.Sprintf(
		"dropping %v message without application id that arrived before SetStoreInfo (kind=%s, recording=%s)",
		kind, id.Kind, id.RecordingId))
}
