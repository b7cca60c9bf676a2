package gbt

import (
	"bytes"
	"encoding/binary"
	"io"
	"os"

	"github.com/edsrzf/mmap-go"
	"github.com/pkg/errors"
)

// Model file format: a small self-delimiting binary layout, little-
// endian throughout, mirroring the field order of original_source's
// serialize.rs (bias/biases first, then the variant names for the
// classifiers, then trees; each tree a flat node
// array; each node a discriminator byte followed by its fields).
var fileMagic = [4]byte{'G', 'B', 'T', '1'}

const (
	taskRegression = iota
	taskBinary
	taskMulticlass
)

const (
	nodeBranch = 0
	nodeLeaf   = 1
)

const (
	splitContinuous = 0
	splitDiscrete   = 1
)

// Save writes a trained Regressor to path in the model file format.
func (r *Regressor) Save(path string) error {
	var buf bytes.Buffer
	buf.Write(fileMagic[:])
	writeByte(&buf, taskRegression)
	writeFloat64(&buf, r.Bias)
	writeTrees(&buf, r.Trees)
	return writeFile(path, buf.Bytes())
}

// LoadRegressor reads a Regressor previously written by Save.
func LoadRegressor(path string) (*Regressor, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, wrapError(Corrupt, err, "read model file")
	}
	return decodeRegressor(bytes.NewReader(data))
}

// Save writes a trained BinaryClassifier to path.
func (c *BinaryClassifier) Save(path string) error {
	var buf bytes.Buffer
	buf.Write(fileMagic[:])
	writeByte(&buf, taskBinary)
	writeFloat64(&buf, c.Bias)
	writeStrings(&buf, c.VariantNames)
	writeTrees(&buf, c.Trees)
	return writeFile(path, buf.Bytes())
}

// LoadBinaryClassifier reads a BinaryClassifier previously written by Save.
func LoadBinaryClassifier(path string) (*BinaryClassifier, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, wrapError(Corrupt, err, "read model file")
	}
	return decodeBinaryClassifier(bytes.NewReader(data))
}

// LoadBinaryClassifierMmap maps path into memory with mmap-go and
// decodes from the mapped bytes, avoiding the full read-into-heap copy
// os.ReadFile would perform — useful for large models served by a
// long-running process. The returned closer must be called once the
// model is no longer needed.
func LoadBinaryClassifierMmap(path string) (*BinaryClassifier, io.Closer, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, nil, wrapError(Corrupt, err, "open model file")
	}
	defer f.Close()
	m, err := mmap.Map(f, mmap.RDONLY, 0)
	if err != nil {
		return nil, nil, wrapError(Corrupt, err, "mmap model file")
	}
	model, err := decodeBinaryClassifier(bytes.NewReader(m))
	if err != nil {
		m.Unmap()
		return nil, nil, err
	}
	return model, &mmapCloser{m}, nil
}

type mmapCloser struct{ m mmap.MMap }

func (c *mmapCloser) Close() error { return c.m.Unmap() }

// Save writes a trained MulticlassClassifier to path.
func (c *MulticlassClassifier) Save(path string) error {
	var buf bytes.Buffer
	buf.Write(fileMagic[:])
	writeByte(&buf, taskMulticlass)
	writeUint32(&buf, uint32(len(c.Biases)))
	for _, b := range c.Biases {
		writeFloat64(&buf, b)
	}
	writeStrings(&buf, c.VariantNames)
	writeUint32(&buf, uint32(len(c.Trees)))
	for _, round := range c.Trees {
		writeTrees(&buf, round)
	}
	return writeFile(path, buf.Bytes())
}

// LoadMulticlassClassifier reads a MulticlassClassifier previously
// written by Save.
func LoadMulticlassClassifier(path string) (*MulticlassClassifier, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, wrapError(Corrupt, err, "read model file")
	}
	return decodeMulticlassClassifier(bytes.NewReader(data))
}

func writeFile(path string, data []byte) error {
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return wrapError(Corrupt, err, "write model file %s", path)
	}
	return nil
}

func writeByte(buf *bytes.Buffer, b int)         { buf.WriteByte(byte(b)) }
func writeUint32(buf *bytes.Buffer, v uint32)    { binary.Write(buf, binary.LittleEndian, v) }
func writeFloat32(buf *bytes.Buffer, v float32)  { binary.Write(buf, binary.LittleEndian, v) }
func writeFloat64(buf *bytes.Buffer, v float64)  { binary.Write(buf, binary.LittleEndian, v) }

func writeStrings(buf *bytes.Buffer, ss []string) {
	writeUint32(buf, uint32(len(ss)))
	for _, s := range ss {
		writeUint32(buf, uint32(len(s)))
		buf.WriteString(s)
	}
}

func writeTrees(buf *bytes.Buffer, trees []Tree) {
	writeUint32(buf, uint32(len(trees)))
	for _, t := range trees {
		writeTree(buf, &t)
	}
}

func writeTree(buf *bytes.Buffer, t *Tree) {
	writeUint32(buf, uint32(len(t.Nodes)))
	for _, n := range t.Nodes {
		writeNode(buf, n)
	}
}

func writeNode(buf *bytes.Buffer, n Node) {
	if n.Branch != nil {
		writeByte(buf, nodeBranch)
		b := n.Branch
		writeUint32(buf, uint32(b.LeftChildIndex))
		writeUint32(buf, uint32(b.RightChildIndex))
		writeFloat32(buf, b.ExamplesFraction)
		writeBranchSplit(buf, b.Split)
		return
	}
	writeByte(buf, nodeLeaf)
	writeFloat64(buf, n.Leaf.Value)
	writeFloat32(buf, n.Leaf.ExamplesFraction)
}

func writeBranchSplit(buf *bytes.Buffer, s BranchSplit) {
	if s.Continuous != nil {
		writeByte(buf, splitContinuous)
		c := s.Continuous
		writeUint32(buf, uint32(c.FeatureIndex))
		writeFloat32(buf, c.SplitValue)
		writeByte(buf, int(c.InvalidValuesDirection))
		return
	}
	writeByte(buf, splitDiscrete)
	d := s.Discrete
	writeUint32(buf, uint32(d.FeatureIndex))
	writeUint32(buf, uint32(d.Directions.Len()))
	buf.Write(d.Directions.Pack())
}

func decodeRegressor(r *bytes.Reader) (*Regressor, error) {
	if err := checkHeader(r, taskRegression); err != nil {
		return nil, err
	}
	bias, err := readFloat64(r)
	if err != nil {
		return nil, err
	}
	trees, err := readTrees(r)
	if err != nil {
		return nil, err
	}
	return &Regressor{Bias: bias, Trees: trees}, nil
}

func decodeBinaryClassifier(r *bytes.Reader) (*BinaryClassifier, error) {
	if err := checkHeader(r, taskBinary); err != nil {
		return nil, err
	}
	bias, err := readFloat64(r)
	if err != nil {
		return nil, err
	}
	names, err := readStrings(r)
	if err != nil {
		return nil, err
	}
	trees, err := readTrees(r)
	if err != nil {
		return nil, err
	}
	return &BinaryClassifier{Bias: bias, VariantNames: names, Trees: trees}, nil
}

func decodeMulticlassClassifier(r *bytes.Reader) (*MulticlassClassifier, error) {
	if err := checkHeader(r, taskMulticlass); err != nil {
		return nil, err
	}
	nClasses, err := readUint32(r)
	if err != nil {
		return nil, err
	}
	biases := make([]float64, nClasses)
	for i := range biases {
		if biases[i], err = readFloat64(r); err != nil {
			return nil, err
		}
	}
	names, err := readStrings(r)
	if err != nil {
		return nil, err
	}
	nRounds, err := readUint32(r)
	if err != nil {
		return nil, err
	}
	rounds := make([][]Tree, nRounds)
	for i := range rounds {
		if rounds[i], err = readTrees(r); err != nil {
			return nil, err
		}
	}
	return &MulticlassClassifier{Biases: biases, VariantNames: names, Trees: rounds}, nil
}

func checkHeader(r *bytes.Reader, wantTask int) error {
	var magic [4]byte
	if _, err := io.ReadFull(r, magic[:]); err != nil {
		return wrapError(Corrupt, err, "read magic")
	}
	if magic != fileMagic {
		return newError(Corrupt, "bad magic bytes")
	}
	task, err := r.ReadByte()
	if err != nil {
		return wrapError(Corrupt, err, "read task byte")
	}
	if int(task) != wantTask {
		return newError(Corrupt, "model file task byte %d does not match requested loader %d", task, wantTask)
	}
	return nil
}

func readUint32(r *bytes.Reader) (uint32, error) {
	var v uint32
	err := binary.Read(r, binary.LittleEndian, &v)
	if err != nil {
		return 0, errors.Wrap(err, "read uint32")
	}
	return v, nil
}

func readFloat32(r *bytes.Reader) (float32, error) {
	var v float32
	err := binary.Read(r, binary.LittleEndian, &v)
	if err != nil {
		return 0, errors.Wrap(err, "read float32")
	}
	return v, nil
}

func readFloat64(r *bytes.Reader) (float64, error) {
	var v float64
	err := binary.Read(r, binary.LittleEndian, &v)
	if err != nil {
		return 0, errors.Wrap(err, "read float64")
	}
	return v, nil
}

func readStrings(r *bytes.Reader) ([]string, error) {
	n, err := readUint32(r)
	if err != nil {
		return nil, err
	}
	out := make([]string, n)
	for i := range out {
		l, err := readUint32(r)
		if err != nil {
			return nil, err
		}
		b := make([]byte, l)
		if _, err := io.ReadFull(r, b); err != nil {
			return nil, wrapError(Corrupt, err, "read string")
		}
		out[i] = string(b)
	}
	return out, nil
}

func readTrees(r *bytes.Reader) ([]Tree, error) {
	n, err := readUint32(r)
	if err != nil {
		return nil, err
	}
	out := make([]Tree, n)
	for i := range out {
		if out[i], err = readTree(r); err != nil {
			return nil, err
		}
	}
	return out, nil
}

func readTree(r *bytes.Reader) (Tree, error) {
	n, err := readUint32(r)
	if err != nil {
		return Tree{}, err
	}
	nodes := make([]Node, n)
	for i := range nodes {
		if nodes[i], err = readNode(r); err != nil {
			return Tree{}, err
		}
	}
	return Tree{Nodes: nodes}, nil
}

func readNode(r *bytes.Reader) (Node, error) {
	kind, err := r.ReadByte()
	if err != nil {
		return Node{}, wrapError(Corrupt, err, "read node discriminator")
	}
	switch kind {
	case nodeBranch:
		left, err := readUint32(r)
		if err != nil {
			return Node{}, err
		}
		right, err := readUint32(r)
		if err != nil {
			return Node{}, err
		}
		frac, err := readFloat32(r)
		if err != nil {
			return Node{}, err
		}
		split, err := readBranchSplit(r)
		if err != nil {
			return Node{}, err
		}
		return Node{Branch: &BranchNode{LeftChildIndex: int(left), RightChildIndex: int(right), ExamplesFraction: frac, Split: split}}, nil
	case nodeLeaf:
		value, err := readFloat64(r)
		if err != nil {
			return Node{}, err
		}
		frac, err := readFloat32(r)
		if err != nil {
			return Node{}, err
		}
		return Node{Leaf: &LeafNode{Value: value, ExamplesFraction: frac}}, nil
	default:
		return Node{}, newError(Corrupt, "unknown node discriminator %d", kind)
	}
}

func readBranchSplit(r *bytes.Reader) (BranchSplit, error) {
	kind, err := r.ReadByte()
	if err != nil {
		return BranchSplit{}, wrapError(Corrupt, err, "read split discriminator")
	}
	switch kind {
	case splitContinuous:
		fi, err := readUint32(r)
		if err != nil {
			return BranchSplit{}, err
		}
		value, err := readFloat32(r)
		if err != nil {
			return BranchSplit{}, err
		}
		dirByte, err := r.ReadByte()
		if err != nil {
			return BranchSplit{}, wrapError(Corrupt, err, "read split direction")
		}
		return BranchSplit{Continuous: &BranchSplitContinuous{
			FeatureIndex:           int(fi),
			SplitValue:             value,
			InvalidValuesDirection: SplitDirection(dirByte),
		}}, nil
	case splitDiscrete:
		fi, err := readUint32(r)
		if err != nil {
			return BranchSplit{}, err
		}
		nBits, err := readUint32(r)
		if err != nil {
			return BranchSplit{}, err
		}
		packed := make([]byte, (int(nBits)+7)/8)
		if _, err := io.ReadFull(r, packed); err != nil {
			return BranchSplit{}, wrapError(Corrupt, err, "read split bitset")
		}
		return BranchSplit{Discrete: &BranchSplitDiscrete{
			FeatureIndex: int(fi),
			Directions:   UnpackBitset(packed, int(nBits)),
		}}, nil
	default:
		return BranchSplit{}, newError(Corrupt, "unknown split discriminator %d", kind)
	}
}
