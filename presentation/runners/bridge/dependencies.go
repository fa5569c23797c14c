package bridge

import (
	"ethertap/application/logging"
	"ethertap/infrastructure/resolver"
	"ethertap/infrastructure/settings"
	"ethertap/infrastructure/tap"
)

type AppDependencies interface {
	Settings() settings.Settings
	Factory() *tap.Factory
	Lookup() resolver.Lookup
	Logger() logging.Logger
}

type Dependencies struct {
	settings settings.Settings
	factory  *tap.Factory
	lookup   resolver.Lookup
	logger   logging.Logger
}

func NewDependencies(
	settings settings.Settings,
	factory *tap.Factory,
	lookup resolver.Lookup,
	logger logging.Logger,
) AppDependencies {
	if lookup == nil {
		lookup = resolver.DefaultLookup
	}
	return &Dependencies{
		settings: settings,
		factory:  factory,
		lookup:   lookup,
		logger:   logger,
	}
}

func (d Dependencies) Settings() settings.Settings {
	return d.settings
}

func (d Dependencies) Factory() *tap.Factory {
	return d.factory
}

func (d Dependencies) Lookup() resolver.Lookup {
	return d.lookup
}

func (d Dependencies) Logger() logging.Logger {
	return d.logger
}
