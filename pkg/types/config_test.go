package types

import (
	"errors"
	"testing"
)

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name    string
		config  Config
		wantErr error
	}{
		{
			name:    "empty backend returns ErrBackendEmpty",
			config:  Config{Backend: "", DataDir: "/tmp/data"},
			wantErr: ErrBackendEmpty,
		},
		{
			name:    "unknown backend returns ErrBackendUnknown",
			config:  Config{Backend: "postgres", DataDir: "/tmp/data"},
			wantErr: ErrBackendUnknown,
		},
		{
			name:    "valid sqlite config",
			config:  Config{Backend: "sqlite", DataDir: "/tmp/data"},
			wantErr: nil,
		},
		{
			name:    "memory backend is valid",
			config:  Config{Backend: "memory"},
			wantErr: nil,
		},
		{
			name:    "unknown vector backend rejected",
			config:  Config{Backend: "sqlite", VectorBackend: "faiss"},
			wantErr: ErrVectorBackendUnknown,
		},
		{
			name:    "unknown embedder rejected",
			config:  Config{Backend: "sqlite", Embedder: "bert"},
			wantErr: ErrEmbedderUnknown,
		},
		{
			name:    "negative dimensions rejected",
			config:  Config{Backend: "sqlite", EmbeddingDimensions: -4},
			wantErr: ErrDimensionsInvalid,
		},
		{
			name:    "similarity above one rejected",
			config:  Config{Backend: "sqlite", MinSimilarity: 1.5},
			wantErr: ErrSimilarityInvalid,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.config.Validate()
			if tt.wantErr == nil {
				if err != nil {
					t.Fatalf("expected nil error, got %v", err)
				}
				return
			}
			if err == nil {
				t.Fatalf("expected error %v, got nil", tt.wantErr)
			}
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("expected error %v, got %v", tt.wantErr, err)
			}
		})
	}
}

func TestConfigWithDefaults(t *testing.T) {
	cfg := Config{Backend: BackendSQLite}.WithDefaults()
	if cfg.VectorBackend != VectorAuto {
		t.Errorf("VectorBackend = %q, want %q", cfg.VectorBackend, VectorAuto)
	}
	if cfg.Embedder != EmbedderHash {
		t.Errorf("Embedder = %q, want %q", cfg.Embedder, EmbedderHash)
	}
	if cfg.EmbeddingDimensions != DefaultEmbeddingDimensions {
		t.Errorf("EmbeddingDimensions = %d, want %d", cfg.EmbeddingDimensions, DefaultEmbeddingDimensions)
	}
	if cfg.TrainingThreshold != DefaultTrainingThreshold {
		t.Errorf("TrainingThreshold = %d, want %d", cfg.TrainingThreshold, DefaultTrainingThreshold)
	}

	custom := Config{Backend: BackendSQLite, EmbeddingDimensions: 64, MinSimilarity: 0.5}.WithDefaults()
	if custom.EmbeddingDimensions != 64 || custom.MinSimilarity != 0.5 {
		t.Errorf("WithDefaults overwrote explicit values: %+v", custom)
	}
}
