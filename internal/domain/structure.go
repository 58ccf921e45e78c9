package domain

import (
	"fmt"
	"strconv"
	"strings"
)

// DefaultStructure is loaded into every editor once it reports ready: a
// six-carbon ring in MDL V2000 format.
const DefaultStructure = "\n" +
	"  Ketcher  9282116442D 1   1.00000     0.00000     0\n" +
	"\n" +
	"  6  6  0  0  0  0            999 V2000\n" +
	"    9.5500  -11.7000    0.0000 C   0  0  0  0  0  0  0  0  0  0  0  0\n" +
	"   10.4160  -12.2000    0.0000 C   0  0  0  0  0  0  0  0  0  0  0  0\n" +
	"   10.4160  -13.2000    0.0000 C   0  0  0  0  0  0  0  0  0  0  0  0\n" +
	"    9.5500  -13.7000    0.0000 C   0  0  0  0  0  0  0  0  0  0  0  0\n" +
	"    8.6840  -13.2000    0.0000 C   0  0  0  0  0  0  0  0  0  0  0  0\n" +
	"    8.6840  -12.2000    0.0000 C   0  0  0  0  0  0  0  0  0  0  0  0\n" +
	"  1  2  1  0     0  0\n" +
	"  2  3  1  0     0  0\n" +
	"  3  4  1  0     0  0\n" +
	"  4  5  1  0     0  0\n" +
	"  5  6  1  0     0  0\n" +
	"  6  1  1  0     0  0\n" +
	"M  END\n"

// Molfile is the subset of an MDL V2000 connection table the panel inspects.
type Molfile struct {
	Name     string
	Elements []string
	Bonds    [][2]int
}

// ParseMolfile reads the header, atom block and bond block of a V2000 molfile.
// Atom indices in Bonds are 1-based as in the file.
func ParseMolfile(text string) (*Molfile, error) {
	lines := strings.Split(strings.ReplaceAll(text, "\r\n", "\n"), "\n")
	if len(lines) < 4 {
		return nil, molfileError("missing header block")
	}

	counts := lines[3]
	if !strings.Contains(counts, "V2000") {
		return nil, molfileError("counts line is not V2000")
	}
	if len(counts) < 6 {
		return nil, molfileError("counts line too short")
	}
	atomCount, err := strconv.Atoi(strings.TrimSpace(counts[0:3]))
	if err != nil {
		return nil, molfileError("bad atom count")
	}
	bondCount, err := strconv.Atoi(strings.TrimSpace(counts[3:6]))
	if err != nil {
		return nil, molfileError("bad bond count")
	}
	if atomCount < 0 || bondCount < 0 {
		return nil, molfileError("negative atom or bond count")
	}
	if len(lines) < 4+atomCount+bondCount {
		return nil, molfileError("truncated connection table")
	}

	mol := &Molfile{
		Name:     strings.TrimSpace(lines[0]),
		Elements: make([]string, 0, atomCount),
		Bonds:    make([][2]int, 0, bondCount),
	}

	for i := 0; i < atomCount; i++ {
		fields := strings.Fields(lines[4+i])
		if len(fields) < 4 {
			return nil, molfileError(fmt.Sprintf("atom line %d malformed", i+1))
		}
		mol.Elements = append(mol.Elements, fields[3])
	}

	for i := 0; i < bondCount; i++ {
		fields := strings.Fields(lines[4+atomCount+i])
		if len(fields) < 3 {
			return nil, molfileError(fmt.Sprintf("bond line %d malformed", i+1))
		}
		from, err1 := strconv.Atoi(fields[0])
		to, err2 := strconv.Atoi(fields[1])
		if err1 != nil || err2 != nil || from < 1 || to < 1 || from > atomCount || to > atomCount {
			return nil, molfileError(fmt.Sprintf("bond line %d references unknown atom", i+1))
		}
		mol.Bonds = append(mol.Bonds, [2]int{from, to})
	}

	return mol, nil
}

func molfileError(detail string) error {
	return NewDomainErrorWithCause(ErrCodeValidation, ErrInvalidMolfile.Message, fmt.Errorf("%s", detail))
}

// AtomCount returns the number of atoms.
func (m *Molfile) AtomCount() int { return len(m.Elements) }

// BondCount returns the number of bonds.
func (m *Molfile) BondCount() int { return len(m.Bonds) }

// IsSimpleRing reports whether the structure is a single cycle: every atom has
// exactly two neighbours and all atoms are connected.
func (m *Molfile) IsSimpleRing() bool {
	n := m.AtomCount()
	if n < 3 || m.BondCount() != n {
		return false
	}

	adj := make([][]int, n+1)
	for _, b := range m.Bonds {
		if b[0] == b[1] {
			return false
		}
		adj[b[0]] = append(adj[b[0]], b[1])
		adj[b[1]] = append(adj[b[1]], b[0])
	}
	for i := 1; i <= n; i++ {
		if len(adj[i]) != 2 {
			return false
		}
	}

	seen := make([]bool, n+1)
	stack := []int{1}
	visited := 0
	for len(stack) > 0 {
		cur := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if seen[cur] {
			continue
		}
		seen[cur] = true
		visited++
		stack = append(stack, adj[cur]...)
	}
	return visited == n
}
