package junction

// LightState is the colour shown by a traffic light
type LightState int

const (
	Red LightState = iota
	Green
)

func (s LightState) String() string {
	if s == Green {
		return "Green"
	}
	return "Red"
}

// TrafficLight is a two-state traffic light. In training mode the light
// ignores its state and always gives the same answer, red by default.
type TrafficLight struct {
	name  string
	state LightState

	training  bool
	alwaysRed bool
}

// NewTrafficLight returns a new red traffic light
func NewTrafficLight(name string) *TrafficLight {
	return &TrafficLight{name: name, state: Red, alwaysRed: true}
}

// SetTrainingMode enables or disables training mode. While enabled,
// Stopped returns alwaysRed regardless of the light's state.
func (l *TrafficLight) SetTrainingMode(enabled, alwaysRed bool) {
	l.training = enabled
	l.alwaysRed = alwaysRed
}

// Stopped returns whether the light requires a stop
func (l *TrafficLight) Stopped() bool {
	if l.training {
		return l.alwaysRed
	}
	return l.state == Red
}

// State returns the state of the light
func (l *TrafficLight) State() LightState {
	return l.state
}

// SetState sets the state of the light
func (l *TrafficLight) SetState(s LightState) {
	l.state = s
}

// Name returns the name of the light
func (l *TrafficLight) Name() string {
	return l.name
}

// Manager cycles groups of traffic lights round-robin. Exactly one
// group is green at a time; after each green period the current group
// turns red and the next group turns green.
type Manager struct {
	groups        [][]*TrafficLight
	greenDuration float64

	current int
	timer   float64
}

// NewManager returns a Manager over the non-empty groups. All lights
// start red except those of the first group.
func NewManager(groups [][]*TrafficLight, greenDuration float64) *Manager {
	kept := make([][]*TrafficLight, 0, len(groups))
	for _, g := range groups {
		if len(g) > 0 {
			kept = append(kept, g)
		}
	}

	m := &Manager{groups: kept, greenDuration: greenDuration}
	for _, g := range m.groups {
		setGroupState(g, Red)
	}
	if len(m.groups) > 0 {
		setGroupState(m.groups[0], Green)
	}
	return m
}

// Advance moves the manager's clock forward by dt seconds of simulated
// time, switching groups when the green period has elapsed
func (m *Manager) Advance(dt float64) {
	if len(m.groups) == 0 {
		return
	}

	m.timer += dt
	if m.timer >= m.greenDuration {
		setGroupState(m.groups[m.current], Red)
		m.current = (m.current + 1) % len(m.groups)
		setGroupState(m.groups[m.current], Green)
		m.timer = 0
	}
}

// Current returns the index of the green group
func (m *Manager) Current() int {
	return m.current
}

// Groups returns the number of light groups being cycled
func (m *Manager) Groups() int {
	return len(m.groups)
}

func setGroupState(group []*TrafficLight, s LightState) {
	for _, l := range group {
		if l != nil {
			l.SetState(s)
		}
	}
}
