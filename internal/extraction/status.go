package extraction

// Status represents runtime information about a strategy.
type Status struct {
	Name    string
	Enabled bool
	Reason  string
	Details map[string]string
}

// statusProvider is implemented by strategies that can supply detailed status information.
type statusProvider interface {
	Status() Status
}

// Describe returns status entries for the provided strategies.
func Describe(strategies []Strategy) []Status {
	statuses := make([]Status, 0, len(strategies))
	for _, s := range strategies {
		if reporter, ok := s.(statusProvider); ok {
			statuses = append(statuses, reporter.Status())
			continue
		}

		statuses = append(statuses, Status{
			Name:    s.Name(),
			Enabled: s.IsEnabled(),
		})
	}
	return statuses
}

type toggle struct {
	disabled bool
	reason   string
}

func (t *toggle) Disable(reason string) {
	t.disabled = true
	t.reason = reason
}

func (t *toggle) IsEnabled() bool { return !t.disabled }
