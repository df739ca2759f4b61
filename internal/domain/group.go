package domain

// GroupTag names a partition of follows. Names travel between accounts, ids do not.
type GroupTag struct {
	ID   int64  `json:"tagid"`
	Name string `json:"name"`
}

type ContainerKind int

const (
	ContainerUser ContainerKind = iota
	ContainerDefault
)

func (k ContainerKind) String() string {
	if k == ContainerDefault {
		return "default"
	}
	return "user"
}

// ContainerSpec describes a source container to be recreated on the destination.
type ContainerSpec struct {
	Title   string
	Intro   string
	Private bool
	Kind    ContainerKind
}

// ContainerRef points at a remote container. Used is the item count it already holds.
type ContainerRef struct {
	ID    int64
	Title string
	Kind  ContainerKind
	Used  int
}
