package status

import (
	"fmt"
	"time"

	"google.golang.org/protobuf/types/known/structpb"

	"github.com/oshokin/diffbell/internal/domain/alert"
)

// Field names shared by the status file and the remote control API.
const (
	FieldInsertions       = "insertions"
	FieldDeletions        = "deletions"
	FieldTotal            = "total"
	FieldThreshold        = "threshold"
	FieldIdentity         = "identity"
	FieldPreviousIdentity = "previous_identity"
	FieldRinging          = "ringing"
	FieldSnoozed          = "snoozed"
	FieldSnoozedAt        = "snoozed_at"
	FieldUpdatedAt        = "updated_at"
)

// Snapshot is a render event stamped with the threshold it was judged against.
type Snapshot struct {
	// UpdatedAt is when the snapshot was taken.
	UpdatedAt time.Time
	// Event is the render event.
	Event alert.RenderEvent
	// Threshold is the configured threshold.
	Threshold int
}

// ToStruct converts the snapshot into a protobuf Struct.
func (s Snapshot) ToStruct() *structpb.Struct {
	snoozedAt := ""
	if !s.Event.State.SnoozedAt.IsZero() {
		snoozedAt = s.Event.State.SnoozedAt.UTC().Format(time.RFC3339)
	}

	updatedAt := ""
	if !s.UpdatedAt.IsZero() {
		updatedAt = s.UpdatedAt.UTC().Format(time.RFC3339)
	}

	sample := s.Event.Sample

	return &structpb.Struct{
		Fields: map[string]*structpb.Value{
			FieldInsertions:       structpb.NewNumberValue(float64(sample.Insertions)),
			FieldDeletions:        structpb.NewNumberValue(float64(sample.Deletions)),
			FieldTotal:            structpb.NewNumberValue(float64(sample.Total)),
			FieldThreshold:        structpb.NewNumberValue(float64(s.Threshold)),
			FieldIdentity:         structpb.NewStringValue(sample.Identity),
			FieldPreviousIdentity: structpb.NewStringValue(sample.PreviousIdentity),
			FieldRinging:          structpb.NewBoolValue(s.Event.State.Ringing),
			FieldSnoozed:          structpb.NewBoolValue(s.Event.State.Snoozed),
			FieldSnoozedAt:        structpb.NewStringValue(snoozedAt),
			FieldUpdatedAt:        structpb.NewStringValue(updatedAt),
		},
	}
}

// FromStruct converts a protobuf Struct back into a snapshot.
func FromStruct(message *structpb.Struct) (Snapshot, error) {
	fields := message.GetFields()

	number := func(key string) int {
		return int(fields[key].GetNumberValue())
	}

	parseTime := func(key string) (time.Time, error) {
		raw := fields[key].GetStringValue()
		if raw == "" {
			return time.Time{}, nil
		}

		parsed, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			return time.Time{}, fmt.Errorf("parse %s: %w", key, err)
		}

		return parsed, nil
	}

	snoozedAt, err := parseTime(FieldSnoozedAt)
	if err != nil {
		return Snapshot{}, err
	}

	updatedAt, err := parseTime(FieldUpdatedAt)
	if err != nil {
		return Snapshot{}, err
	}

	return Snapshot{
		UpdatedAt: updatedAt,
		Threshold: number(FieldThreshold),
		Event: alert.RenderEvent{
			Sample: alert.NewSample(
				number(FieldInsertions),
				number(FieldDeletions),
				fields[FieldIdentity].GetStringValue(),
				fields[FieldPreviousIdentity].GetStringValue(),
			),
			State: alert.State{
				SnoozedAt: snoozedAt,
				Ringing:   fields[FieldRinging].GetBoolValue(),
				Snoozed:   fields[FieldSnoozed].GetBoolValue(),
			},
		},
	}, nil
}
