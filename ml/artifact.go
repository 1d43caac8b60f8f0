package ml

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"time"

	customerrors "fieldops-forecast/errors"
	"fieldops-forecast/models"
)

// ArtifactSchemaVersion is bumped whenever the artifact layout changes.
const ArtifactSchemaVersion = 1

// ArtifactMeta describes how and on what an artifact was trained.
type ArtifactMeta struct {
	SchemaVersion int                `json:"schema_version"`
	Target        string             `json:"target"`
	Features      []string           `json:"features"`
	FeatureHash   string             `json:"feature_hash"`
	TrainedAt     time.Time          `json:"trained_at"`
	RunID         string             `json:"run_id"`
	Evaluation    *models.Evaluation `json:"evaluation,omitempty"`
}

// Artifact is a fitted pipeline together with its metadata.
type Artifact struct {
	Meta     ArtifactMeta `json:"meta"`
	Pipeline *Pipeline    `json:"pipeline"`
}

// FeatureHash fingerprints an ordered feature list.
func FeatureHash(features []string) string {
	sum := sha256.Sum256([]byte(strings.Join(features, "\x1f")))
	return hex.EncodeToString(sum[:])
}

// NewArtifact wraps a fitted pipeline.
func NewArtifact(target, runID string, p *Pipeline, eval *models.Evaluation, trainedAt time.Time) *Artifact {
	features := append([]string(nil), p.Features...)
	return &Artifact{
		Meta: ArtifactMeta{
			SchemaVersion: ArtifactSchemaVersion,
			Target:        target,
			Features:      features,
			FeatureHash:   FeatureHash(features),
			TrainedAt:     trainedAt.UTC(),
			RunID:         runID,
			Evaluation:    eval,
		},
		Pipeline: p,
	}
}

// Save writes the artifact as JSON, replacing any file at path.
func (a *Artifact) Save(path string) error {
	data, err := json.Marshal(a)
	if err != nil {
		return fmt.Errorf("encoding artifact %s: %w", a.Meta.Target, err)
	}
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("writing artifact %s: %w", filepath.Base(path), err)
	}
	return os.Rename(tmp, path)
}

// LoadArtifact reads an artifact and checks it is internally consistent.
func LoadArtifact(path string) (*Artifact, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, &customerrors.MissingInputError{Path: path}
		}
		return nil, err
	}
	var a Artifact
	if err := json.Unmarshal(data, &a); err != nil {
		return nil, fmt.Errorf("decoding artifact %s: %w", filepath.Base(path), err)
	}
	if a.Meta.SchemaVersion != ArtifactSchemaVersion {
		return nil, fmt.Errorf("artifact %s has schema version %d, want %d: %w",
			filepath.Base(path), a.Meta.SchemaVersion, ArtifactSchemaVersion, customerrors.ErrFeatureDrift)
	}
	if a.Pipeline == nil {
		return nil, fmt.Errorf("artifact %s: %w", filepath.Base(path), customerrors.ErrModelNotFitted)
	}
	if FeatureHash(a.Meta.Features) != a.Meta.FeatureHash || !slices.Equal(a.Meta.Features, a.Pipeline.Features) {
		return nil, fmt.Errorf("artifact %s: %w", filepath.Base(path), customerrors.ErrFeatureDrift)
	}
	return &a, nil
}

// Check verifies the artifact was trained on exactly features, in order.
func (a *Artifact) Check(features []string) error {
	if FeatureHash(features) != a.Meta.FeatureHash {
		return fmt.Errorf("%s: got %v, trained on %v: %w",
			a.Meta.Target, features, a.Meta.Features, customerrors.ErrFeatureDrift)
	}
	return nil
}

// Predict applies the wrapped pipeline after checking its feature list
// still matches the metadata it was saved with.
func (a *Artifact) Predict(f *Frame) ([]float64, error) {
	if err := a.Check(a.Pipeline.Features); err != nil {
		return nil, err
	}
	return a.Pipeline.Predict(f)
}
