package schema

// List is a collection of named objects keyed by full name.
// Adding an object whose full name is already present replaces the earlier
// object. The zero value is ready to use.
type List[T NamedObject] struct {
	objects map[string]T
}

// Add inserts or replaces an object.
func (l *List[T]) Add(object T) {
	if l.objects == nil {
		l.objects = make(map[string]T)
	}
	l.objects[object.FullName()] = object
}

// Lookup finds an object by its full name.
func (l *List[T]) Lookup(fullName string) (T, bool) {
	var zero T
	if isBlank(fullName) {
		return zero, false
	}
	object, ok := l.objects[fullName]
	return object, ok
}

// LookupIn finds an object by its owner and simple name.
func (l *List[T]) LookupIn(owner NamedObject, name string) (T, bool) {
	var zero T
	if isBlank(name) {
		return zero, false
	}
	var ownerName string
	if owner != nil {
		ownerName = owner.FullName()
	}
	return l.Lookup(joinName(ownerName, name))
}

// Contains reports whether an object with the same full name is present.
func (l *List[T]) Contains(object T) bool {
	_, ok := l.objects[object.FullName()]
	return ok
}

// Remove deletes the object with the same full name, reporting whether one
// was present.
func (l *List[T]) Remove(object T) bool {
	key := object.FullName()
	if _, ok := l.objects[key]; !ok {
		return false
	}
	delete(l.objects, key)
	return true
}

// Len returns the number of objects.
func (l *List[T]) Len() int {
	return len(l.objects)
}

// Values returns all objects sorted by order. Each call sorts afresh.
func (l *List[T]) Values(order Order) []T {
	values := make([]T, 0, len(l.objects))
	for _, object := range l.objects {
		values = append(values, object)
	}
	return Sort(values, order)
}
