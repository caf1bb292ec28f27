package bridge

import (
	"context"
	"errors"
	"log/slog"

	"github.com/caffeineduck/todobridge/hostfunc"
)

// Service names as seen by the plugin.
const (
	SvcReadFile          = "readFile"
	SvcWriteTextFile     = "writeTextFile"
	SvcWriteImageFile    = "writeImageFile"
	SvcReadTodos         = "readTodos"
	SvcWriteTodos        = "writeTodos"
	SvcReadArchivedFile  = "readArchivedFile"
	SvcWriteArchivedFile = "writeArchivedFile"
	SvcReadArchived      = "readArchived"
	SvcWriteArchived     = "writeArchived"
	SvcReadSettings      = "readSettings"
	SvcWriteSettings     = "writeSettings"
	SvcCloudSyncState    = "cloudSyncState"
)

// Services is the plugin-facing contract: todo, archive, settings and sync calls never
// fail, they log and fall back to "", EmptyList or false. ReadFile, WriteTextFile and
// WriteImageFile pass I/O errors through.
type Services struct {
	b      *Bridge
	logger *slog.Logger
}

func NewServices(b *Bridge) *Services {
	return &Services{b: b, logger: b.logger}
}

func (s *Services) fail(op string, err error) {
	s.logger.Error("service call failed", "op", op, "error", err)
}

func (s *Services) ReadFile(path string) (string, error) {
	return s.b.ReadFile(path)
}

func (s *Services) WriteTextFile(text string) (string, error) {
	return s.b.WriteTextFile(text)
}

// WriteImageFile returns "" without writing when dataURL is not a decodable image data URL.
func (s *Services) WriteImageFile(dataURL string) (string, error) {
	path, err := s.b.WriteImageFile(dataURL)
	switch {
	case errors.Is(err, ErrNoDataURL):
		return "", nil
	case errors.Is(err, ErrInvalidImage):
		s.logger.Warn("image payload rejected", "op", SvcWriteImageFile, "error", err)
		return "", nil
	}
	return path, err
}

func (s *Services) ReadTodos(ctx context.Context) string {
	text, err := s.b.ReadTodos(ctx)
	if err != nil {
		s.fail(SvcReadTodos, err)
		return EmptyList
	}
	return text
}

func (s *Services) WriteTodos(ctx context.Context, jsonText string) bool {
	if err := s.b.WriteTodos(ctx, jsonText); err != nil {
		s.fail(SvcWriteTodos, err)
		return false
	}
	return true
}

func (s *Services) ReadArchivedFile() string {
	text, err := s.b.ReadArchivedFile()
	if err != nil {
		if !errors.Is(err, ErrNotFound) {
			s.fail(SvcReadArchivedFile, err)
		}
		return ""
	}
	return text
}

func (s *Services) WriteArchivedFile(text string) bool {
	if err := s.b.WriteArchivedFile(text); err != nil {
		s.fail(SvcWriteArchivedFile, err)
		return false
	}
	return true
}

func (s *Services) ReadArchived(ctx context.Context) string {
	text, err := s.b.ReadArchived(ctx)
	if err != nil {
		s.fail(SvcReadArchived, err)
		return EmptyList
	}
	return text
}

func (s *Services) WriteArchived(ctx context.Context, jsonText string) bool {
	if err := s.b.WriteArchived(ctx, jsonText); err != nil {
		s.fail(SvcWriteArchived, err)
		return false
	}
	return true
}

func (s *Services) ReadSettings() string {
	text, err := s.b.ReadSettings()
	if err != nil {
		if !errors.Is(err, ErrNotFound) {
			s.fail(SvcReadSettings, err)
		}
		return ""
	}
	return text
}

func (s *Services) WriteSettings(text string) bool {
	if err := s.b.WriteSettings(text); err != nil {
		s.fail(SvcWriteSettings, err)
		return false
	}
	return true
}

func (s *Services) CloudSyncState() SyncStatus {
	status, err := s.b.CloudSyncState()
	if err != nil {
		s.fail(SvcCloudSyncState, err)
		return SyncStatus{}
	}
	return status
}

// Register exposes every service in registry under its plugin-facing name.
// Only readFile, writeTextFile and writeImageFile return errors; a missing argument to
// any other write is logged and reported as false.
func (s *Services) Register(registry *hostfunc.Registry) {
	registry.Register(SvcReadFile, func(ctx context.Context, args map[string]any) (any, error) {
		path, err := hostfunc.StringArg(args, hostfunc.ArgPath)
		if err != nil {
			return nil, err
		}
		return s.ReadFile(path)
	})

	registry.Register(SvcWriteTextFile, func(ctx context.Context, args map[string]any) (any, error) {
		text, err := hostfunc.StringArg(args, hostfunc.ArgText)
		if err != nil {
			return nil, err
		}
		return s.WriteTextFile(text)
	})

	registry.Register(SvcWriteImageFile, func(ctx context.Context, args map[string]any) (any, error) {
		dataURL, err := hostfunc.StringArg(args, hostfunc.ArgDataURL)
		if err != nil {
			return nil, err
		}
		path, err := s.WriteImageFile(dataURL)
		if err != nil {
			return nil, err
		}
		if path == "" {
			return nil, nil
		}
		return path, nil
	})

	registry.Register(SvcReadTodos, func(ctx context.Context, args map[string]any) (any, error) {
		return s.ReadTodos(ctx), nil
	})

	registry.Register(SvcWriteTodos, func(ctx context.Context, args map[string]any) (any, error) {
		text, err := hostfunc.JSONTextArg(args, hostfunc.ArgJSON)
		if err != nil {
			s.fail(SvcWriteTodos, err)
			return false, nil
		}
		return s.WriteTodos(ctx, text), nil
	})

	registry.Register(SvcReadArchivedFile, func(ctx context.Context, args map[string]any) (any, error) {
		return s.ReadArchivedFile(), nil
	})

	registry.Register(SvcWriteArchivedFile, func(ctx context.Context, args map[string]any) (any, error) {
		text, err := hostfunc.StringArg(args, hostfunc.ArgText)
		if err != nil {
			s.fail(SvcWriteArchivedFile, err)
			return false, nil
		}
		return s.WriteArchivedFile(text), nil
	})

	registry.Register(SvcReadArchived, func(ctx context.Context, args map[string]any) (any, error) {
		return s.ReadArchived(ctx), nil
	})

	registry.Register(SvcWriteArchived, func(ctx context.Context, args map[string]any) (any, error) {
		text, err := hostfunc.JSONTextArg(args, hostfunc.ArgJSON)
		if err != nil {
			s.fail(SvcWriteArchived, err)
			return false, nil
		}
		return s.WriteArchived(ctx, text), nil
	})

	registry.Register(SvcReadSettings, func(ctx context.Context, args map[string]any) (any, error) {
		return s.ReadSettings(), nil
	})

	registry.Register(SvcWriteSettings, func(ctx context.Context, args map[string]any) (any, error) {
		text, err := hostfunc.StringArg(args, hostfunc.ArgText)
		if err != nil {
			s.fail(SvcWriteSettings, err)
			return false, nil
		}
		return s.WriteSettings(text), nil
	})

	registry.Register(SvcCloudSyncState, func(ctx context.Context, args map[string]any) (any, error) {
		return s.CloudSyncState(), nil
	})
}
