package models

// Zone defines one district on the live city map.
type Zone struct {
	ID        string  `yaml:"id" json:"id"`
	Name      string  `yaml:"name" json:"name"`
	Kind      string  `yaml:"kind" json:"kind"`
	X         float64 `yaml:"x" json:"x"`
	Y         float64 `yaml:"y" json:"y"`
	Buildings int     `yaml:"buildings" json:"buildings"`
	BaseLoad  float64 `yaml:"base_load" json:"base_load"`
}

// ZoneState is a zone with its current simulated load attached.
type ZoneState struct {
	Zone  Zone    `json:"zone"`
	Load  float64 `json:"load"`
	Level string  `json:"level"`
}
