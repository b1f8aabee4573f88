package manhour

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"

	"github.com/warp/manhour-engine/generic"
)

// PunchInput is one clock event as delivered by ingestion.
type PunchInput struct {
	EmployeeKey generic.EmployeeKey
	Timestamp   time.Time
	Channel     generic.InputChannel
	Role        generic.Role
}

// Recorder validates punches and appends them to the store.
type Recorder struct {
	Punches generic.PunchStore
	node    *snowflake.Node
}

// NewRecorder creates a recorder whose punch IDs are generated on the
// given snowflake node. Every process writing to one store needs its own
// node ID.
func NewRecorder(punches generic.PunchStore, nodeID int64) (*Recorder, error) {
	node, err := snowflake.NewNode(nodeID)
	if err != nil {
		return nil, fmt.Errorf("snowflake node %d: %w", nodeID, err)
	}
	return &Recorder{Punches: punches, node: node}, nil
}

// Record appends the batch atomically and returns the stored punches.
// Channels that cannot pre-tag must send no role; their punches are
// stored as Unknown and picked up by the next disambiguation run.
func (r *Recorder) Record(ctx context.Context, inputs []PunchInput) ([]generic.Punch, error) {
	punches := make([]generic.Punch, 0, len(inputs))
	for i, in := range inputs {
		p, err := r.toPunch(in)
		if err != nil {
			return nil, fmt.Errorf("punch %d: %w", i, err)
		}
		punches = append(punches, p)
	}
	if len(punches) == 0 {
		return punches, nil
	}
	if err := r.Punches.AppendPunches(ctx, punches); err != nil {
		return nil, fmt.Errorf("append punches: %w", err)
	}
	return punches, nil
}

func (r *Recorder) toPunch(in PunchInput) (generic.Punch, error) {
	key := generic.EmployeeKey(strings.TrimSpace(string(in.EmployeeKey)))
	if key == "" {
		return generic.Punch{}, fmt.Errorf("%w: employee key is required", generic.ErrInvalidPunch)
	}
	if in.Timestamp.IsZero() {
		return generic.Punch{}, fmt.Errorf("%w: timestamp is required", generic.ErrInvalidPunch)
	}

	channel := in.Channel
	switch channel {
	case "":
		channel = generic.ChannelDevice
	case generic.ChannelDevice, generic.ChannelUSB, generic.ChannelManual, generic.ChannelAPI:
	default:
		return generic.Punch{}, fmt.Errorf("%w: unknown input channel %q", generic.ErrInvalidPunch, channel)
	}

	role, err := generic.ParseRole(string(in.Role))
	if err != nil {
		return generic.Punch{}, err
	}
	if role != generic.RoleUnknown && !channel.PreTags() {
		return generic.Punch{}, fmt.Errorf("%w: channel %q cannot set a role", generic.ErrInvalidPunch, channel)
	}

	return generic.Punch{
		ID:           generic.PunchID(r.node.Generate().Int64()),
		EmployeeKey:  key,
		Timestamp:    in.Timestamp,
		InputChannel: channel,
		Role:         role,
	}, nil
}
