package multipart

import "fmt"

// NumParts returns the number of ranges Plan produces for the given sizes.
func NumParts(fileSize, chunkSize int64) int {
	mustValidSizes(fileSize, chunkSize)

	count := fileSize / chunkSize
	if fileSize%chunkSize != 0 {
		count++
	}
	return int(count)
}

// Plan splits a file of fileSize bytes into contiguous ranges of chunkSize bytes.
// The last range holds the remainder, or a full chunk when the size divides evenly.
// An empty file yields no ranges.
func Plan(fileSize, chunkSize int64) []ChunkRange {
	count := NumParts(fileSize, chunkSize)
	if count == 0 {
		return []ChunkRange{}
	}

	lastChunkSize := fileSize % chunkSize
	if lastChunkSize == 0 {
		lastChunkSize = chunkSize
	}

	ranges := make([]ChunkRange, count)
	for i := 0; i < count; i++ {
		length := chunkSize
		if i == count-1 {
			length = lastChunkSize
		}
		ranges[i] = ChunkRange{
			Index:  i,
			Offset: int64(i) * chunkSize,
			Length: length,
		}
	}

	return ranges
}

func mustValidSizes(fileSize, chunkSize int64) {
	if chunkSize <= 0 {
		panic(fmt.Sprintf("multipart: chunk size must be positive, got %d", chunkSize))
	}
	if fileSize < 0 {
		panic(fmt.Sprintf("multipart: file size must not be negative, got %d", fileSize))
	}
}
