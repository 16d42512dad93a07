package domain

type removal struct {
	session int
	value   int
}

// Live tracks which values of the original domains are still available during a search.
// Every removal is recorded on a trail; Mark returns the current trail position and Restore undoes every
// removal made after it, so restoring costs as much as the changes made since the mark.
type Live struct {
	domains *Domains
	alive   [][]bool
	sizes   []int
	trail   []removal
}

func NewLive(domains *Domains) *Live {
	live := &Live{
		domains: domains,
		alive:   make([][]bool, domains.Len()),
		sizes:   make([]int, domains.Len()),
		trail:   make([]removal, 0),
	}
	for session := range domains.Len() {
		live.alive[session] = make([]bool, domains.Size(session))
		for value := range live.alive[session] {
			live.alive[session][value] = true
		}
		live.sizes[session] = domains.Size(session)
	}
	return live
}

func (live *Live) Domains() *Domains {
	return live.domains
}

// Size is the number of values still available for the session
func (live *Live) Size(session int) int {
	return live.sizes[session]
}

func (live *Live) Alive(session, value int) bool {
	return live.alive[session][value]
}

// Remove discards a value, reporting whether it was still available
func (live *Live) Remove(session, value int) bool {
	if !live.alive[session][value] {
		return false
	}
	live.alive[session][value] = false
	live.sizes[session]--
	live.trail = append(live.trail, removal{session, value})
	return true
}

func (live *Live) Mark() int {
	return len(live.trail)
}

func (live *Live) Restore(mark int) {
	for len(live.trail) > mark {
		last := live.trail[len(live.trail)-1]
		live.trail = live.trail[:len(live.trail)-1]
		live.alive[last.session][last.value] = true
		live.sizes[last.session]++
	}
}

// Values lists the available value positions of a session in enumeration order
func (live *Live) Values(session int) []int {
	values := make([]int, 0, live.sizes[session])
	for value, alive := range live.alive[session] {
		if alive {
			values = append(values, value)
		}
	}
	return values
}
