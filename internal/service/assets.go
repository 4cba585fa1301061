package service

import (
	"context"
	"io"

	"storyline/internal/contextutil"
	"storyline/internal/events"
	"storyline/internal/indexer"
	"storyline/internal/media"
	"storyline/internal/timeline"
)

// defaultRelated is the number of related scenes returned when none is asked for.
const defaultRelated = 5

// AttachMedia uploads a file and adds the returned references to a scene.
// The references are dropped if the scene was removed, or the story
// reloaded, while the upload was running.
func (w *Workspace) AttachMedia(ctx context.Context, sceneID string, kind media.Kind, filename string, r io.Reader) (timeline.Scene, error) {
	logger := contextutil.LoggerFromContext(ctx)
	if w.opts.Media == nil {
		return timeline.Scene{}, ErrUnavailable
	}

	var epoch uint64
	if err := w.locked(func() error {
		_, err := w.store.Get(sceneID)
		epoch = w.epoch
		return err
	}); err != nil {
		return timeline.Scene{}, err
	}

	refs, err := w.opts.Media.Upload(ctx, kind, filename, r)
	if err != nil {
		logger.ErrorContext(ctx, "media upload failed", "story_id", w.id, "scene_id", sceneID, "error", err)
		return timeline.Scene{}, WrapError(err, "failed to upload media")
	}

	var sc timeline.Scene
	err = w.locked(func() error {
		if w.epoch != epoch {
			return w.discarded(ctx, "media", "story reloaded")
		}
		cur, err := w.store.Get(sceneID)
		if err != nil {
			return w.discarded(ctx, "media", "scene removed")
		}
		m := cur.Media
		switch kind {
		case media.KindImage:
			m.Images = append(m.Images, refs...)
		case media.KindVideo:
			m.Videos = append(m.Videos, refs...)
		case media.KindAudio:
			m.Audio = append(m.Audio, refs...)
		}
		sc, err = w.store.Update(sceneID, timeline.ScenePatch{Media: &m})
		if err != nil {
			return err
		}
		w.publish(events.TypeMediaAttached, map[string]any{"scene_id": sceneID, "kind": kind, "refs": refs})
		return nil
	})
	if err != nil {
		return timeline.Scene{}, err
	}

	logger.InfoContext(ctx, "media attached", "story_id", w.id, "scene_id", sceneID, "kind", kind, "refs", len(refs))
	return sc, nil
}

// RelatedScenes returns the scenes of this story most similar to query. An
// empty query uses the text of the active scene, which is itself excluded.
func (w *Workspace) RelatedScenes(ctx context.Context, query string, k int) ([]indexer.Match, error) {
	if w.opts.Index == nil {
		return nil, ErrUnavailable
	}
	if k <= 0 {
		k = defaultRelated
	}

	var exclude string
	if err := w.locked(func() error {
		exclude = w.tracker.Active()
		if query == "" && exclude != "" {
			if sc, err := w.store.Get(exclude); err == nil {
				query = sc.Description
			}
		}
		return nil
	}); err != nil {
		return nil, err
	}

	matches, err := w.opts.Index.Related(ctx, w.id, query, k, exclude)
	if err != nil {
		return nil, WrapError(err, "failed to find related scenes")
	}
	return matches, nil
}
