package vectorstore

import (
	"context"
	"testing"

	"github.com/qdrant/go-client/qdrant"
)

func TestGrpcTarget(t *testing.T) {
	tests := []struct {
		name     string
		urlStr   string
		wantErr  bool
		wantHost string
		wantPort int
	}{
		{name: "default port", urlStr: "http://localhost:6333", wantHost: "localhost", wantPort: 6334},
		{name: "custom port", urlStr: "http://qdrant:9000", wantHost: "qdrant", wantPort: 9001},
		{name: "no port", urlStr: "http://localhost", wantHost: "localhost", wantPort: 6334},
		{name: "no hostname", urlStr: "http://:6333", wantHost: "localhost", wantPort: 6334},
		{name: "invalid URL", urlStr: "://invalid", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			host, port, err := grpcTarget(tt.urlStr)
			if tt.wantErr {
				if err == nil {
					t.Error("grpcTarget() expected error, got nil")
				}
				return
			}
			if err != nil {
				t.Fatalf("grpcTarget() unexpected error: %v", err)
			}
			if host != tt.wantHost {
				t.Errorf("host = %v, want %v", host, tt.wantHost)
			}
			if port != tt.wantPort {
				t.Errorf("port = %v, want %v", port, tt.wantPort)
			}
		})
	}
}

func TestNewQdrantStore_InvalidURL(t *testing.T) {
	_, err := NewQdrantStore("://invalid")
	if err == nil {
		t.Error("NewQdrantStore() with invalid URL should return error")
	}
}

func TestMatchConditions(t *testing.T) {
	conds, err := matchConditions(map[string]any{
		"story_id": "s-1",
		"hidden":   false,
		"order":    3,
	})
	if err != nil {
		t.Fatalf("matchConditions() error = %v", err)
	}
	if len(conds) != 3 {
		t.Fatalf("matchConditions() = %d conditions, want 3", len(conds))
	}

	want := []string{"hidden", "order", "story_id"}
	for i, c := range conds {
		field := c.GetField()
		if field == nil || field.GetKey() != want[i] {
			t.Errorf("condition %d key = %v, want %s", i, field, want[i])
		}
	}
	if got := conds[2].GetField().GetMatch().GetKeyword(); got != "s-1" {
		t.Errorf("story_id keyword = %q, want s-1", got)
	}

	if _, err := matchConditions(map[string]any{"score": 1.5}); err == nil {
		t.Error("matchConditions() with float should fail")
	}
}

func TestQdrantStore_EarlyReturns(t *testing.T) {
	store := &QdrantStore{}
	ctx := context.Background()

	if err := store.Upsert(ctx, "scenes", []Point{}); err != nil {
		t.Errorf("Upsert() with empty points should return early, got: %v", err)
	}
	if err := store.Delete(ctx, "scenes", []string{}); err != nil {
		t.Errorf("Delete() with empty IDs should return early, got: %v", err)
	}
	if _, err := store.Search(ctx, "scenes", []float32{1, 2}, 0, nil); err == nil {
		t.Error("Search() with k=0 should return error")
	}
}

func TestConvertPayloadToMap(t *testing.T) {
	if result := convertPayloadToMap(nil); result == nil || len(result) != 0 {
		t.Errorf("convertPayloadToMap(nil) = %v, want empty map", result)
	}

	payload := qdrant.NewValueMap(map[string]any{
		"story_id": "s-1",
		"order":    2,
		"hidden":   true,
	})
	got := convertPayloadToMap(payload)
	if got["story_id"] != "s-1" {
		t.Errorf("story_id = %v, want s-1", got["story_id"])
	}
	if got["order"] != int64(2) {
		t.Errorf("order = %v (%T), want int64(2)", got["order"], got["order"])
	}
	if got["hidden"] != true {
		t.Errorf("hidden = %v, want true", got["hidden"])
	}
}

func TestStatsFromInfo(t *testing.T) {
	points := uint64(42)
	tests := []struct {
		name string
		info *qdrant.CollectionInfo
		want CollectionStats
	}{
		{name: "nil info", info: nil, want: CollectionStats{Status: "unknown"}},
		{
			name: "populated collection",
			info: &qdrant.CollectionInfo{
				Status:      qdrant.CollectionStatus_Green,
				PointsCount: &points,
				Config: &qdrant.CollectionConfig{
					Params: &qdrant.CollectionParams{
						VectorsConfig: qdrant.NewVectorsConfig(&qdrant.VectorParams{Size: 768, Distance: qdrant.Distance_Cosine}),
					},
				},
			},
			want: CollectionStats{VectorSize: 768, Points: 42, Status: "green"},
		},
		{
			name: "missing config",
			info: &qdrant.CollectionInfo{Status: qdrant.CollectionStatus_Yellow},
			want: CollectionStats{Status: "yellow"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := statsFromInfo(tt.info); got != tt.want {
				t.Errorf("statsFromInfo() = %+v, want %+v", got, tt.want)
			}
		})
	}
}
