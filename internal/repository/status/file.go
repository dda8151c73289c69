package status

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"google.golang.org/protobuf/encoding/protojson"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/oshokin/diffbell/internal/config"
)

// Repository defines persistence operations for snapshots.
type Repository interface {
	Load(ctx context.Context) (Snapshot, error)
	Save(ctx context.Context, snapshot Snapshot) error
}

// FileRepository persists the snapshot to a JSON file on disk.
type FileRepository struct {
	// path is the filesystem location of the JSON status file.
	path string
	// mu protects concurrent access to the status file.
	mu sync.Mutex
}

// ErrNotFound is returned when the status file does not exist yet.
var ErrNotFound = errors.New("status not found")

// NewFileRepository creates a repository that reads/writes JSON at the provided path.
func NewFileRepository(path string) *FileRepository {
	return &FileRepository{
		path: filepath.Clean(path),
	}
}

// Load reads the snapshot from disk.
func (r *FileRepository) Load(_ context.Context) (Snapshot, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	contents, err := os.ReadFile(r.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return Snapshot{}, ErrNotFound
		}

		return Snapshot{}, fmt.Errorf("read status file: %w", err)
	}

	var message structpb.Struct
	if err = protojson.Unmarshal(contents, &message); err != nil {
		return Snapshot{}, fmt.Errorf("decode status file: %w", err)
	}

	return FromStruct(&message)
}

// Save replaces the file atomically so that readers never see a partial write.
func (r *FileRepository) Save(_ context.Context, snapshot Snapshot) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	marshalOptions := protojson.MarshalOptions{
		Multiline:       true,
		EmitUnpopulated: true,
	}

	data, err := marshalOptions.Marshal(snapshot.ToStruct())
	if err != nil {
		return fmt.Errorf("encode status: %w", err)
	}

	temp := r.path + ".tmp"
	if err = os.WriteFile(temp, data, config.DefaultFilePermissions); err != nil {
		return fmt.Errorf("write status file: %w", err)
	}

	if err = os.Rename(temp, r.path); err != nil {
		return fmt.Errorf("replace status file: %w", err)
	}

	return nil
}
