package main

import (
	"math/rand/v2"
	"strconv"

	"github.com/google/uuid"

	"vgrid"
)

// Person is the demo record.
type Person struct {
	ID        uuid.UUID
	FirstName string
	LastName  string
	Age       int
	Visits    int
	Status    string
	Progress  int
}

var (
	firstNames = []string{"Ada", "Grace", "Linus", "Ken", "Barbara", "Edsger", "Margaret", "Dennis", "Frances", "Alan", "Radia", "Niklaus", "Hedy", "Donald", "Katherine", "Robert"}
	lastNames  = []string{"Lovelace", "Hopper", "Torvalds", "Thompson", "Liskov", "Dijkstra", "Hamilton", "Ritchie", "Allen", "Turing", "Perlman", "Wirth", "Lamarr", "Knuth", "Johnson", "Pike"}
	statuses   = []string{"relationship", "complicated", "single"}
)

// peopleNamespace derives stable record ids, so exports from two runs with
// the same seed line up.
var peopleNamespace = uuid.MustParse("6f1c1b1e-4a57-4f6e-9d8e-2b0c5a1d7e33")

// generatePeople builds n deterministic records from seed.
func generatePeople(n int, seed uint64) []Person {
	rng := rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))
	people := make([]Person, n)
	for i := range people {
		people[i] = Person{
			ID:        uuid.NewSHA1(peopleNamespace, []byte(strconv.FormatUint(seed, 10)+":"+strconv.Itoa(i))),
			FirstName: firstNames[rng.IntN(len(firstNames))],
			LastName:  lastNames[rng.IntN(len(lastNames))],
			Age:       18 + rng.IntN(83),
			Visits:    rng.IntN(1001),
			Status:    statuses[rng.IntN(len(statuses))],
			Progress:  rng.IntN(101),
		}
	}
	return people
}

func personKey(p Person, _ int) string { return p.ID.String() }

// peopleColumns declares the demo columns: a Name group over first and
// last name, then the numeric and status columns.
func peopleColumns() (*vgrid.ColumnSet[Person], error) {
	return vgrid.NewColumnSet[Person](
		vgrid.Group("name", "Name",
			vgrid.NewColumn("firstName", vgrid.Value(func(p Person) any { return p.FirstName }),
				vgrid.Header("First Name"), vgrid.Footer("firstName"), vgrid.AggregateWith(vgrid.UniqueCount)),
			vgrid.NewColumn("lastName", vgrid.Value(func(p Person) any { return p.LastName }),
				vgrid.Header("Last Name"), vgrid.Footer("lastName"), vgrid.AggregateWith(vgrid.UniqueCount)),
		),
		vgrid.NewColumn("age", vgrid.Value(func(p Person) any { return p.Age }),
			vgrid.Header("Age"), vgrid.Footer("age"), vgrid.AggregateWith(vgrid.Median)),
		vgrid.NewColumn("visits", vgrid.Value(func(p Person) any { return p.Visits }),
			vgrid.Header("Visits"), vgrid.Footer("visits"), vgrid.Number(0), vgrid.AggregateWith(vgrid.Sum)),
		vgrid.NewColumn("status", vgrid.Value(func(p Person) any { return p.Status }),
			vgrid.Header("Status"), vgrid.Footer("status")),
		vgrid.NewColumn("progress", vgrid.Value(func(p Person) any { return p.Progress }),
			vgrid.Header("Profile Progress"), vgrid.Footer("progress"), vgrid.Percent(0), vgrid.AggregateWith(vgrid.Mean)),
	)
}

// summaryRow mirrors the record count under every column.
func summaryRow(cols *vgrid.ColumnSet[Person], n int) map[string]string {
	out := make(map[string]string, len(cols.Leaves()))
	for _, id := range cols.IDs() {
		out[id] = strconv.Itoa(n)
	}
	return out
}
