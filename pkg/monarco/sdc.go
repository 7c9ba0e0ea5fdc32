package monarco

// dispatchSDC places at most one service request into the outbound frame.
// When the item at the cursor is still in flight nothing new is sent and the
// previous request is retransmitted.
func (e *Engine) dispatchSDC() {
	if e.cursor >= len(e.items) {
		return
	}

	if item := e.items[e.cursor]; item.busy > 0 {
		if item.tick() {
			e.log.Errorf("SDC item %d %c ADDR=0x%03X timeout", e.cursor, item.kind(), item.Address)
			if e.RearmOnTimeout {
				item.rearm()
			}
		}
		return
	}

	start := e.cursor
	for !e.items[e.cursor].eligible() {
		e.cursor++
		if e.cursor >= len(e.items) {
			e.cursor = 0
		}
		if e.cursor == start {
			e.log.Verbosef("No SDC request in this cycle")
			return
		}
	}

	e.tx.SDC = e.items[e.cursor].dispatch()
}

// matchSDC applies the response in the committed inbound frame to the item
// at the cursor. Responses which don't belong to that item are ignored.
func (e *Engine) matchSDC() {
	if e.cursor >= len(e.items) {
		return
	}

	item, resp := e.items[e.cursor], e.rx.SDC
	if resp.Address != item.Address || resp.Write != item.Write {
		return
	}
	// a write echo must carry the written value unless it reports an error
	if resp.Write && !resp.Error && resp.Value != item.Value {
		return
	}
	if resp.Error && (!item.errored || item.Value != resp.Value) {
		e.log.Errorf("SDC item %d %c ADDR=0x%03X ERROR=0x%04X", e.cursor, item.kind(), item.Address, resp.Value)
	}

	item.complete(resp)
	e.cursor++
	if e.cursor == len(e.items) {
		e.cursor = 0
	}
}
