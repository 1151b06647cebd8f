// types.go
package game

// RawConfig is one scenario file as written in YAML. Pointer fields tell an
// absent value apart from a zero one so overlays can be merged.
type RawConfig struct {
	Version string     `yaml:"version"`
	Notes   string     `yaml:"notes,omitempty"`
	Timer   TimerCfg   `yaml:"timer"`
	Keypad  *KeypadCfg `yaml:"keypad,omitempty"`
	Tape    *TapeCfg   `yaml:"tape,omitempty"`
	Shapes  *ShapesCfg `yaml:"shapes,omitempty"`
	Wires   *WiresCfg  `yaml:"wires,omitempty"`
	Pliers  *PliersCfg `yaml:"pliers,omitempty"`
	Drill   *DrillCfg  `yaml:"drill,omitempty"`
	Screws  *ScrewCfg  `yaml:"screws,omitempty"`
	Lids    []LidCfg   `yaml:"lids,omitempty"`
}

// TimerCfg takes either total_seconds or an hours/minutes/seconds split.
type TimerCfg struct {
	TotalSeconds *float64 `yaml:"total_seconds,omitempty"`
	Hours        *int     `yaml:"hours,omitempty"`
	Minutes      *int     `yaml:"minutes,omitempty"`
	Seconds      *float64 `yaml:"seconds,omitempty"`
	SlowInterval *float64 `yaml:"slow_interval,omitempty"`
	FastInterval *float64 `yaml:"fast_interval,omitempty"`
	Easing       string   `yaml:"easing,omitempty"` // linear | easeOutQuad | easeInOutCubic
}

type KeypadCfg struct {
	ID   string  `yaml:"id,omitempty"`
	Code *string `yaml:"code"`
}

type TapeCfg struct {
	ID               string   `yaml:"id,omitempty"`
	RequiredDistance *float64 `yaml:"required_distance,omitempty"`
	RequiredTime     *float64 `yaml:"required_time,omitempty"`
	ToolTag          string   `yaml:"tool_tag,omitempty"`
}

type ShapesCfg struct {
	ID      string      `yaml:"id,omitempty"`
	Sockets []SocketCfg `yaml:"sockets"`
}

type SocketCfg struct {
	ID      string `yaml:"id"`
	Accepts string `yaml:"accepts"`
}

type WiresCfg struct {
	ID     string   `yaml:"id,omitempty"`
	IDs    []string `yaml:"ids"`
	Defuse string   `yaml:"defuse"`
}

type PliersCfg struct {
	ClosedDistance *float64 `yaml:"closed_distance,omitempty"`
	OpenDistance   *float64 `yaml:"open_distance,omitempty"`
	MaxAngle       *float64 `yaml:"max_angle,omitempty"`
	CloseThreshold *float64 `yaml:"close_threshold,omitempty"`
}

type DrillCfg struct {
	ID  string   `yaml:"id,omitempty"`
	RPM *float64 `yaml:"rpm,omitempty"`
}

type ScrewCfg struct {
	ThreadPitch     *float64 `yaml:"thread_pitch,omitempty"`
	UnscrewDistance *float64 `yaml:"total_unscrew_distance,omitempty"`
	Direction       *int     `yaml:"direction,omitempty"`
	Reverse         *bool    `yaml:"reverse,omitempty"`
}

type LidCfg struct {
	ID          string   `yaml:"id"`
	TotalScrews int      `yaml:"total_screws"`
	Screws      []string `yaml:"screws,omitempty"`
	ReleaseHold *float64 `yaml:"release_hold,omitempty"`
}
