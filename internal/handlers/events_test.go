package handlers

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
)

type recordingSubscriber struct {
	storyIDs []string
}

func (s *recordingSubscriber) ServeWS(w http.ResponseWriter, _ *http.Request, storyID string) {
	s.storyIDs = append(s.storyIDs, storyID)
	w.WriteHeader(http.StatusSwitchingProtocols)
}

func TestEventsHandler_ServeHTTP(t *testing.T) {
	s := newTestServer(t)
	id := s.createStory("Harbour Tales")

	sub := &recordingSubscriber{}
	r := chi.NewRouter()
	r.Route("/api/stories", NewStoryHandler(s.engine, NewEventsHandler(s.engine, sub)).Routes)

	tests := []struct {
		name       string
		storyID    string
		wantStatus int
	}{
		{name: "known story subscribes", storyID: id, wantStatus: http.StatusSwitchingProtocols},
		{name: "unknown story rejected", storyID: "missing", wantStatus: http.StatusNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/api/stories/"+tt.storyID+"/events", nil)
			w := httptest.NewRecorder()
			r.ServeHTTP(w, req)
			if w.Code != tt.wantStatus {
				t.Errorf("GET events status = %v, want %v", w.Code, tt.wantStatus)
			}
		})
	}

	if len(sub.storyIDs) != 1 || sub.storyIDs[0] != id {
		t.Errorf("subscribed stories = %v, want [%s]", sub.storyIDs, id)
	}
}
