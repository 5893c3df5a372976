package harvest

import (
	"encoding/json"
	"log"
	"os"

	"gradharvest/internal/domain"
)

// checkpoint rewrites the whole accumulated record set. Best effort: a
// failed write is logged and the run continues.
func (h *Harvester) checkpoint() {
	if h.cfg.CheckpointPath == "" {
		return
	}

	records := h.records
	if records == nil {
		records = []domain.RawRecord{}
	}
	b, err := json.MarshalIndent(records, "", "  ")
	if err != nil {
		log.Printf("[checkpoint] marshal failed: %v", err)
		return
	}
	if err := os.WriteFile(h.cfg.CheckpointPath, append(b, '\n'), 0o644); err != nil {
		log.Printf("[checkpoint] write failed: %v", err)
		return
	}

	h.stats.Checkpoints++
	log.Printf("[checkpoint] saved %d rows -> %s", len(h.records), h.cfg.CheckpointPath)
}

// LoadCheckpoint reads a previous run's checkpoint for Resume.
func LoadCheckpoint(path string) ([]domain.RawRecord, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var records []domain.RawRecord
	if err := json.Unmarshal(b, &records); err != nil {
		return nil, err
	}
	return records, nil
}
