package parser

import "iter"

// Segment partitions filtered lines into blocks. A block closes at every line
// starting with a method keyword; lines after the last such line belong to no
// block and are dropped.
func Segment(lines iter.Seq[SourceLine]) []Block {
	var blocks []Block
	var pending []SourceLine

	for line := range lines {
		pending = append(pending, line)
		method, ok := matchMethod(line.Text)
		if !ok {
			continue
		}
		blocks = append(blocks, Block{Method: method, Lines: pending})
		pending = nil
	}

	return blocks
}
