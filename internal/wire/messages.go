package wire

// ConfigKV is one versioned config entry as exchanged between controller
// and runner.
type ConfigKV struct {
	Key     string `msgpack:"key"`
	Value   string `msgpack:"value"`
	Version uint64 `msgpack:"version"`
}

// HelloArgs carries nothing today but is kept as an explicit type so the
// RPC shape can grow without breaking the frame's self-describing encoding.
type HelloArgs struct{}

// HelloReply answers a runner's hello with its assigned identity and a full
// config snapshot.
type HelloReply struct {
	RunnerID uint64     `msgpack:"runner_id"`
	TestName string     `msgpack:"test_name"`
	Config   []ConfigKV `msgpack:"config"`
}

// DataRef identifies a data item completed (or abandoned) by the runner so
// the controller can check it back into its owning scenario's pool.
type DataRef struct {
	ScenarioID uint64 `msgpack:"scenario_id"`
	DataID     uint64 `msgpack:"data_id"`
}

// RequestWorkArgs is the runner's report of its current state plus its
// willingness to accept more work this call.
type RequestWorkArgs struct {
	RunnerID        uint64          `msgpack:"runner_id"`
	CurrentWork     map[uint64]int  `msgpack:"current_work"`
	CompletedData   []DataRef       `msgpack:"completed_data"`
	MaxWork         int             `msgpack:"max_work"`
	ConfigVersion   uint64          `msgpack:"config_version"`
}

// Grant is one unit of work the controller hands to a runner.
type Grant struct {
	ScenarioID  uint64 `msgpack:"scenario_id"`
	JourneyName string `msgpack:"journey_name"`
	DataID      uint64 `msgpack:"data_id"`
	HasData     bool   `msgpack:"has_data"`
	Args        []any  `msgpack:"args"`
}

// RequestWorkReply is the controller's answer: new grants, any config
// entries changed since the runner's last known version, and whether the
// runner should begin winding down.
type RequestWorkReply struct {
	Grants       []Grant    `msgpack:"grants"`
	ConfigDelta  []ConfigKV `msgpack:"config_delta"`
	Stop         bool       `msgpack:"stop"`
}

// ByeArgs is sent once by a runner that has finished draining.
type ByeArgs struct {
	RunnerID uint64 `msgpack:"runner_id"`
}
