package insights

// Services agrupa el engine on-demand y el harvester programado.
type Services struct {
	Engine    *Engine
	Harvester *Harvester
}

func NewServices(d Deps, notifier Notifier) Services {
	engine := NewEngine(d)
	return Services{
		Engine:    engine,
		Harvester: NewHarvester(engine, notifier),
	}
}
