package vision

// FindComponents labels the 8-connected regions of set pixels in m and returns
// their bounding boxes in raster discovery order. Area holds the pixel count.
func FindComponents(m *Mask) []Region {
	if m.Width == 0 || m.Height == 0 {
		return nil
	}

	visited := make([]bool, len(m.bits))
	var regions []Region
	var stack []int

	for start, on := range m.bits {
		if !on || visited[start] {
			continue
		}

		visited[start] = true
		stack = append(stack[:0], start)
		minX, minY := m.Width, m.Height
		maxX, maxY := -1, -1
		area := 0

		for len(stack) > 0 {
			idx := stack[len(stack)-1]
			stack = stack[:len(stack)-1]
			x, y := idx%m.Width, idx/m.Width
			area++
			minX, maxX = min(minX, x), max(maxX, x)
			minY, maxY = min(minY, y), max(maxY, y)

			for dy := -1; dy <= 1; dy++ {
				ny := y + dy
				if ny < 0 || ny >= m.Height {
					continue
				}
				for dx := -1; dx <= 1; dx++ {
					nx := x + dx
					if nx < 0 || nx >= m.Width || (dx == 0 && dy == 0) {
						continue
					}
					n := ny*m.Width + nx
					if m.bits[n] && !visited[n] {
						visited[n] = true
						stack = append(stack, n)
					}
				}
			}
		}

		regions = append(regions, Region{
			X:      minX,
			Y:      minY,
			Width:  maxX - minX + 1,
			Height: maxY - minY + 1,
			Area:   area,
		})
	}

	return regions
}

// Largest returns the region with the greatest Area. Ties keep the earliest
// region. It returns false for an empty slice.
func Largest(regions []Region) (Region, bool) {
	if len(regions) == 0 {
		return Region{}, false
	}
	best := regions[0]
	for _, r := range regions[1:] {
		if r.Area > best.Area {
			best = r
		}
	}
	return best, true
}
