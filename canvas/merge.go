package canvas

// CharacterMerger decides what a cell shows when two line characters meet.
type CharacterMerger struct {
	mergeMap map[mergePair]rune
}

type mergePair struct {
	existing rune
	new      rune
}

// NewCharacterMerger creates a merger with the standard junction rules.
func NewCharacterMerger() *CharacterMerger {
	m := &CharacterMerger{mergeMap: make(map[mergePair]rune)}
	m.initializeMergeRules()
	return m
}

// Merge combines two characters. Unknown pairs keep the existing one;
// blanks always give way.
func (m *CharacterMerger) Merge(existing, new rune) rune {
	if existing == ' ' || existing == wideContinuation {
		return new
	}
	if existing == new {
		return existing
	}
	if merged, ok := m.mergeMap[mergePair{existing, new}]; ok {
		return merged
	}
	if merged, ok := m.mergeMap[mergePair{new, existing}]; ok {
		return merged
	}
	return existing
}

func (m *CharacterMerger) initializeMergeRules() {
	m.mergeMap[mergePair{'─', '│'}] = '┼'
	m.mergeMap[mergePair{'╱', '╲'}] = '╳'

	// line meeting a box corner
	m.mergeMap[mergePair{'┌', '─'}] = '┬'
	m.mergeMap[mergePair{'┌', '│'}] = '├'
	m.mergeMap[mergePair{'┐', '─'}] = '┬'
	m.mergeMap[mergePair{'┐', '│'}] = '┤'
	m.mergeMap[mergePair{'└', '─'}] = '┴'
	m.mergeMap[mergePair{'└', '│'}] = '├'
	m.mergeMap[mergePair{'┘', '─'}] = '┴'
	m.mergeMap[mergePair{'┘', '│'}] = '┤'

	m.mergeMap[mergePair{'┬', '│'}] = '┼'
	m.mergeMap[mergePair{'┴', '│'}] = '┼'
	m.mergeMap[mergePair{'├', '─'}] = '┼'
	m.mergeMap[mergePair{'┤', '─'}] = '┼'

	m.mergeMap[mergePair{'-', '|'}] = '+'
	m.mergeMap[mergePair{'+', '-'}] = '+'
	m.mergeMap[mergePair{'+', '|'}] = '+'
	m.mergeMap[mergePair{'/', '\\'}] = 'X'
}
