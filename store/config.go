package store

import "github.com/BurntSushi/toml"

// Config holds a store's tunable limits.
type Config struct {
	// EnableChangelog gates whether InsertChunk/DropEntityPath compute and
	// deliver Events at all.
	EnableChangelog bool `toml:"enable_changelog"`

	// ChunkMaxBytes bounds the combined byte size of any compaction result.
	ChunkMaxBytes uint64 `toml:"chunk_max_bytes"`

	// ChunkMaxRows bounds the combined row count of a compaction result
	// when the candidate's time columns are sorted.
	ChunkMaxRows uint64 `toml:"chunk_max_rows"`

	// ChunkMaxRowsIfUnsorted bounds the combined row count when the
	// candidate's time columns are not sorted, since unsorted data is more
	// expensive to binary-search over and so is kept in smaller chunks.
	ChunkMaxRowsIfUnsorted uint64 `toml:"chunk_max_rows_if_unsorted"`
}

// DefaultConfig returns the store's out-of-the-box configuration.
func DefaultConfig() Config {
	return Config{
		EnableChangelog:        true,
		ChunkMaxBytes:          128 * 1024 * 1024,
		ChunkMaxRows:           4 * 1024 * 1024,
		ChunkMaxRowsIfUnsorted: 256 * 1024,
	}
}

// LoadConfigFile reads a Config from a TOML file, as dolt/go's own
// dependency on github.com/BurntSushi/toml suggests for this kind of
// small, static settings blob. Fields absent from the file keep their
// DefaultConfig value.
func LoadConfigFile(path string) (Config, error) {
	cfg := DefaultConfig()
	_, err := toml.DecodeFile(path, &cfg)
	if err != nil {
		return Config{}, err
	}
	return cfg, nil
}
