package gomoku

// symbol is a cell seen from one player's perspective.
type symbol uint8

const (
	e symbol = iota // empty
	o               // own stone
	x               // opponent stone or board edge
)

type shape []symbol

// Scores per pattern class.
const (
	scoreFive            = 100000
	scoreOpenFour        = 50000
	scoreDoubleFour      = 10000
	scoreFourOpenThree   = 10000
	scoreDoubleOpenThree = 10000
	scoreOpenBlockThree  = 1000
	scoreOpenThree       = 200
	scoreDoubleOpenTwo   = 100
	scoreBlockedThree    = 50
	scoreOpenBlockTwo    = 10
	scoreOpenTwo         = 5
	scoreBlockedTwo      = 3
	scoreDead            = -5
)

var (
	fiveShapes = []shape{
		{o, o, o, o, o},
	}

	openFourShapes = []shape{
		{e, o, o, o, o, e},
	}

	fourThreatShapes = []shape{
		{e, o, o, o, o, x},
		{x, o, o, o, o, e},
		{o, e, o, o, o},
		{o, o, o, e, o},
		{o, o, e, o, o},
	}

	openThreeShapes = []shape{
		{e, o, o, o, e},
		{o, e, o, o},
		{o, o, e, o},
	}

	blockedThreeShapes = []shape{
		{e, e, o, o, o, x},
		{x, o, o, o, e, e},
		{e, o, e, o, o, x},
		{x, o, o, e, o, e},
		{e, o, o, e, o, x},
		{x, o, e, o, o, e},
		{o, e, e, o, o},
		{o, o, e, e, o},
		{o, e, o, e, o},
		{x, e, o, o, o, e, x},
	}

	openTwoShapes = []shape{
		{e, e, o, o, e, e},
		{e, o, e, o, e},
		{o, e, e, o},
	}

	blockedTwoShapes = []shape{
		{e, e, e, o, o, x},
		{x, o, o, e, e, e},
		{e, e, o, e, o, x},
		{x, o, e, o, e, e},
		{e, o, e, e, o, x},
		{x, o, e, e, o, e},
		{o, e, e, e, o},
	}

	// Each dead shape is counted on its own, a line may hold several.
	deadShapes = []shape{
		{x, o, o, o, o, x},
		{x, o, o, o, x},
		{x, o, o, x},
	}
)

// contains reports whether s occurs as a contiguous slice of line.
func contains(line []symbol, s shape) bool {
	for start := 0; start+len(s) <= len(line); start++ {
		matched := true
		for i, sym := range s {
			if line[start+i] != sym {
				matched = false
				break
			}
		}
		if matched {
			return true
		}
	}
	return false
}

// containsAny reports whether any shape of the class occurs in line.
func containsAny(line []symbol, class []shape) bool {
	for _, s := range class {
		if contains(line, s) {
			return true
		}
	}
	return false
}

// countLines returns how many lines contain at least one shape of the class.
func countLines(lines [][]symbol, class []shape) int {
	count := 0
	for _, line := range lines {
		if containsAny(line, class) {
			count++
		}
	}
	return count
}

// anyLine reports whether some line contains a shape of the class.
func anyLine(lines [][]symbol, class []shape) bool {
	return countLines(lines, class) > 0
}

// scoreLines applies the pattern table to the lines through one candidate.
func scoreLines(lines [][]symbol) int {
	score := 0

	if anyLine(lines, fiveShapes) {
		score += scoreFive
	}

	if anyLine(lines, openFourShapes) {
		score += scoreOpenFour
	}

	fours := countLines(lines, fourThreatShapes)
	openThrees := countLines(lines, openThreeShapes)
	blockedThrees := countLines(lines, blockedThreeShapes)
	openTwos := countLines(lines, openTwoShapes)
	blockedTwos := countLines(lines, blockedTwoShapes)

	if fours >= 2 {
		score += scoreDoubleFour
	}

	if fours > 0 && openThrees > 0 {
		score += scoreFourOpenThree
	}

	if openThrees >= 2 {
		score += scoreDoubleOpenThree
	}

	if openThrees > 0 && blockedThrees > 0 {
		score += scoreOpenBlockThree
	}

	score += openThrees * scoreOpenThree

	if openTwos >= 2 {
		score += scoreDoubleOpenTwo
	}

	score += blockedThrees * scoreBlockedThree

	if openTwos > 0 && blockedTwos > 0 {
		score += scoreOpenBlockTwo
	}

	score += openTwos * scoreOpenTwo
	score += blockedTwos * scoreBlockedTwo

	dead := 0
	for _, line := range lines {
		for _, s := range deadShapes {
			if contains(line, s) {
				dead++
			}
		}
	}
	score += dead * scoreDead

	return score
}
