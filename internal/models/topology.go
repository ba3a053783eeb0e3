package models

// NodeSpec declares one node of the city infrastructure diagram.
type NodeSpec struct {
	ID   string `yaml:"id" json:"id"`
	Name string `yaml:"name" json:"name"`
	Kind string `yaml:"kind" json:"kind"`
}

// LinkSpec declares an undirected connection between two infrastructure nodes.
type LinkSpec struct {
	Source   string `yaml:"source" json:"source"`
	Target   string `yaml:"target" json:"target"`
	Kind     string `yaml:"kind" json:"kind"`
	Capacity int    `yaml:"capacity" json:"capacity"`
}
