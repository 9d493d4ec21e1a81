package grid

const (
	ChunkSize      = 32
	ChunkCellCount = ChunkSize * ChunkSize * ChunkSize
)

// ChunkRadius is the number of chunks along each axis needed to hold bounds
// cells.
func ChunkRadius(bounds int) int {
	if bounds <= 0 {
		return 0
	}
	return (bounds + ChunkSize - 1) / ChunkSize
}

// Chunked maps positions of a cube of radius³ chunks to global indices of the
// form chunk*ChunkCellCount + offset.
type Chunked struct {
	Radius int
}

func (c Chunked) Size() int       { return c.Radius * ChunkSize }
func (c Chunked) ChunkCount() int { return c.Radius * c.Radius * c.Radius }

func ChunkIndex(index int) int  { return index / ChunkCellCount }
func ChunkOffset(index int) int { return index % ChunkCellCount }

func OffsetToPos(offset int) Pos { return IndexToPos(offset, ChunkSize) }
func PosToOffset(p Pos) int      { return PosToIndex(p, ChunkSize) }

// IndexToPos converts a global chunked index into a grid position.
func (c Chunked) IndexToPos(index int) Pos {
	chunk := IndexToPos(ChunkIndex(index), c.Radius)
	offset := OffsetToPos(ChunkOffset(index))
	return Pos{
		X: chunk.X*ChunkSize + offset.X,
		Y: chunk.Y*ChunkSize + offset.Y,
		Z: chunk.Z*ChunkSize + offset.Z,
	}
}

// PosToIndex converts an in-bounds grid position into a global chunked index.
func (c Chunked) PosToIndex(p Pos) int {
	chunk := Pos{p.X / ChunkSize, p.Y / ChunkSize, p.Z / ChunkSize}
	offset := Pos{p.X % ChunkSize, p.Y % ChunkSize, p.Z % ChunkSize}
	return PosToIndex(chunk, c.Radius)*ChunkCellCount + PosToOffset(offset)
}

// IsBorder reports whether a chunk-local position touches a chunk face, i.e.
// whether some neighbour of it may live in another chunk.
func IsBorder(local Pos) bool {
	const last = ChunkSize - 1
	return local.X <= 0 || local.X >= last ||
		local.Y <= 0 || local.Y >= last ||
		local.Z <= 0 || local.Z >= last
}
