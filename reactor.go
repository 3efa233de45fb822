package stockroom

// observer is one event subscription. Its terms are the static access
// declaration for the handler body: every notification holds them for the
// duration of the call.
type observer struct {
	terms   []AccessRequest
	handler func(Entity)
}

func (sto *storage) WithAccess(target Entity, requests []AccessRequest, body func()) {
	withTableAccess(sto.tracker, target.Table(), requests, body)
}

func (sto *storage) OnEvent(event string, terms []AccessRequest, handler func(Entity)) {
	sto.observers[event] = append(sto.observers[event], observer{
		terms:   terms,
		handler: handler,
	})
}

// Emit notifies observers of the event synchronously, on the calling
// goroutine. An observer only fires if the target's table carries every
// component its terms name. Handlers may emit further events; the nested
// dispatch registers its own holds and is checked against the ones still
// open here.
func (sto *storage) Emit(event string, target Entity) {
	for _, obs := range sto.observers[event] {
		if !tableCarries(target, obs.terms) {
			continue
		}
		withTableAccess(sto.tracker, target.Table(), obs.terms, func() {
			obs.handler(target)
		})
	}
}

func tableCarries(target Entity, terms []AccessRequest) bool {
	tbl := target.Table()
	for _, term := range terms {
		if !tbl.Contains(term.Component) {
			return false
		}
	}
	return true
}

// RunSystem drives the system's query batch by batch. The declared terms are
// acquired once per matched batch and released when the batch's rows are
// done (or when the callback unwinds), so systems over disjoint archetypes
// never contend while systems overlapping on a table column are caught.
func (sto *storage) RunSystem(sys System) {
	cursor := newCursor(sys.Query, sto)
	cursor.initialize()
	defer cursor.Reset()

	for cursor.storageIndex < len(cursor.matchedStorages) {
		cursor.currentArchetype = cursor.matchedStorages[cursor.storageIndex]
		cursor.remaining = cursor.currentArchetype.table.Length()
		cursor.entityIndex = 0

		if cursor.remaining > 0 {
			withTableAccess(sto.tracker, cursor.currentArchetype.table, sys.Terms, func() {
				for cursor.entityIndex < cursor.remaining {
					cursor.entityIndex++
					sys.Run(cursor)
				}
			})
		}
		cursor.storageIndex++
	}
}
