package config

var Presets = map[string]map[string]*Config{
	"dymola": {
		"quick": {
			Engine: "dymola",
			Settings: SettingsConfig{
				StopTime: 1.0, Tolerance: 1e-4, Solver: "radau",
			},
		},
		"precise": {
			Engine: "dymola",
			Settings: SettingsConfig{
				StopTime: 1.0, Tolerance: 1e-8, Solver: "radau", Intervals: 5000,
			},
		},
		"daily": {
			Engine: "dymola",
			Settings: SettingsConfig{
				StopTime: 86400, Tolerance: 1e-6, Solver: "radau", Intervals: 1440,
			},
		},
		"annual": {
			Engine: "dymola",
			Settings: SettingsConfig{
				StopTime: 31536000, Tolerance: 1e-6, Solver: "radau", Intervals: 8760,
			},
		},
	},
	"optimica": {
		"quick": {
			Engine: "optimica",
			Settings: SettingsConfig{
				StopTime: 1.0, Tolerance: 1e-4, Solver: "CVode", Intervals: 100,
			},
		},
		"precise": {
			Engine: "optimica",
			Settings: SettingsConfig{
				StopTime: 1.0, Tolerance: 1e-8, Solver: "CVode", Intervals: 5000,
			},
		},
		"daily": {
			Engine: "optimica",
			Settings: SettingsConfig{
				StopTime: 86400, Tolerance: 1e-6, Solver: "CVode", Intervals: 1440,
			},
		},
	},
}

func GetPreset(engine, preset string) *Config {
	enginePresets, ok := Presets[engine]
	if !ok {
		return nil
	}
	cfg, ok := enginePresets[preset]
	if !ok {
		return nil
	}
	return cfg
}

func ListPresets(engine string) []string {
	enginePresets, ok := Presets[engine]
	if !ok {
		return nil
	}
	names := make([]string, 0, len(enginePresets))
	for name := range enginePresets {
		names = append(names, name)
	}
	return names
}
