package roster

// Roster is the ordered set of distinct student names currently joined.
// Each name is reference counted by the number of connections holding it, so
// two connections sharing a name occupy one slot and the slot is freed only
// when the last of them leaves.
type Roster struct {
	names []string
	refs  map[string]int
}

// New creates an empty roster
func New() *Roster {
	return &Roster{
		refs: make(map[string]int),
	}
}

// Add takes a reference on name. inserted is true only when the name was not
// present before, which is the only case that warrants a join notification.
func (r *Roster) Add(name string) (inserted bool) {
	r.refs[name]++
	if r.refs[name] == 1 {
		r.names = append(r.names, name)
		return true
	}
	return false
}

// Remove drops one reference on name. removed is true when the name left the roster.
func (r *Roster) Remove(name string) (removed bool) {
	count, exists := r.refs[name]
	if !exists {
		return false
	}
	if count > 1 {
		r.refs[name] = count - 1
		return false
	}
	r.drop(name)
	return true
}

// Evict removes name regardless of how many connections hold it
func (r *Roster) Evict(name string) (removed bool) {
	if _, exists := r.refs[name]; !exists {
		return false
	}
	r.drop(name)
	return true
}

// Contains reports whether name is joined
func (r *Roster) Contains(name string) bool {
	_, exists := r.refs[name]
	return exists
}

// List returns the names in join order
func (r *Roster) List() []string {
	out := make([]string, len(r.names))
	copy(out, r.names)
	return out
}

// Len is the number of distinct names
func (r *Roster) Len() int {
	return len(r.names)
}

func (r *Roster) drop(name string) {
	delete(r.refs, name)
	for i, n := range r.names {
		if n == name {
			r.names = append(r.names[:i], r.names[i+1:]...)
			return
		}
	}
}
