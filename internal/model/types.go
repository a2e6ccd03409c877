package model

import "time"

// VersionedRecord captures schema and codec evolution for persistent data.
type VersionedRecord struct {
	SchemaVersion int `json:"schema_version"`
	CodecVersion  int `json:"codec_version"`
}

// Snapshot is a population persisted in its binary codec form.
type Snapshot struct {
	VersionedRecord
	ID         string    `json:"id"`
	RunID      string    `json:"run_id"`
	Problem    string    `json:"problem"`
	Generation int64     `json:"generation"`
	Size       int       `json:"size"`
	CreatedAt  time.Time `json:"created_at"`
	Population []byte    `json:"population"`
}

type RunSummary struct {
	VersionedRecord
	ID                string    `json:"id"`
	Problem           string    `json:"problem"`
	Optimize          string    `json:"optimize"`
	SurvivorSelector  string    `json:"survivor_selector"`
	OffspringSelector string    `json:"offspring_selector"`
	Alterer           string    `json:"alterer"`
	PopulationSize    int       `json:"population_size"`
	Generations       int       `json:"generations"`
	Seed              int64     `json:"seed"`
	BestFitness       float64   `json:"best_fitness"`
	Best              string    `json:"best"`
	SnapshotID        string    `json:"snapshot_id"`
	CreatedAt         time.Time `json:"created_at"`
}

type GenerationDiagnostics struct {
	Generation   int64   `json:"generation"`
	BestFitness  float64 `json:"best_fitness"`
	MeanFitness  float64 `json:"mean_fitness"`
	WorstFitness float64 `json:"worst_fitness"`
	Alterations  int     `json:"alterations"`
	Invalid      int     `json:"invalid"`
	Killed       int     `json:"killed"`
	Evaluations  int     `json:"evaluations"`
	Diversity    int     `json:"diversity"`
}
