package usecase

// Queue is the FIFO of players waiting for an opponent. It is not safe for
// concurrent use; GameManager guards it with its own lock.
type Queue struct {
	order []string
	index map[string]struct{}
}

func NewQueue() *Queue {
	return &Queue{
		index: make(map[string]struct{}),
	}
}

// Enqueue appends playerID unless it is already waiting. It reports whether the queue changed.
func (that *Queue) Enqueue(playerID string) bool {
	if that.Contains(playerID) {
		return false
	}

	that.order = append(that.order, playerID)
	that.index[playerID] = struct{}{}

	return true
}

// PopPair removes the two oldest entries. ok is false when fewer than two are waiting.
func (that *Queue) PopPair() (string, string, bool) {
	if len(that.order) < 2 {
		return "", "", false
	}

	first, second := that.order[0], that.order[1]
	that.order = that.order[2:]
	delete(that.index, first)
	delete(that.index, second)

	return first, second, true
}

// Remove drops playerID from the queue and reports whether it was waiting.
func (that *Queue) Remove(playerID string) bool {
	if !that.Contains(playerID) {
		return false
	}

	delete(that.index, playerID)
	for i, id := range that.order {
		if id == playerID {
			that.order = append(that.order[:i], that.order[i+1:]...)
			break
		}
	}

	return true
}

func (that *Queue) Contains(playerID string) bool {
	_, ok := that.index[playerID]
	return ok
}

func (that *Queue) Len() int {
	return len(that.order)
}
