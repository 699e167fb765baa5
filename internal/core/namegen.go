package core

import (
	"fmt"
	"math/rand"
)

var nameAdjectives = []string{
	"amber", "bold", "calm", "clever", "crimson", "eager", "fuzzy",
	"gentle", "golden", "hazy", "jolly", "lively", "mellow", "misty",
	"nimble", "quiet", "rapid", "silver", "sunny", "witty",
}

var nameAnimals = []string{
	"badger", "bison", "crane", "falcon", "ferret", "heron", "ibex",
	"lemur", "lynx", "marmot", "otter", "owl", "panda", "raven",
	"seal", "sparrow", "stoat", "tapir", "walrus", "wren",
}

// SuggestChannelName returns a random human-readable channel name such
// as "mellow-otter-42". Purely cosmetic; uniqueness is not guaranteed
// and login handles collisions like any other existing channel.
func SuggestChannelName() string {
	return fmt.Sprintf("%s-%s-%d",
		nameAdjectives[rand.Intn(len(nameAdjectives))],
		nameAnimals[rand.Intn(len(nameAnimals))],
		rand.Intn(100),
	)
}
