package segment

import (
	"image"

	"github.com/dcsflight/cduocr/internal/grid"
	"github.com/dcsflight/cduocr/internal/utils"
)

// Cell detection tuning.
const (
	cellThresholdFrac = 0.10 // column threshold as fraction of band height
	cellPadding       = 1    // symmetric padding around detected runs
	minClusterArea    = 4    // ink area below which a run is noise
)

// cluster is a detected column-aligned character candidate within a band.
type cluster struct {
	x1, x2 int
	mass   float64
}

// Cells partitions the band's pixel strip into exactly cols cell rectangles.
// Cells cover [0, width) with no gaps and no overlaps; detected character
// clusters anchor the boundaries, with surplus empty cells placed in the
// widest empty regions.
func Cells(bin *image.Gray, band grid.Band, cols int) []image.Rectangle {
	w := bin.Bounds().Dx()
	if cols <= 0 || w < cols {
		return nil
	}

	clusters := detectClusters(bin, band, w)
	centers := cellCenters(clusters, cols, w)
	return partition(centers, band, w)
}

// detectClusters finds contiguous vertical-projection runs above the
// threshold, padded symmetrically and filtered for minimal ink area.
func detectClusters(bin *image.Gray, band grid.Band, w int) []cluster {
	proj := VerticalProjection(bin, band.Y1, band.Y2)
	threshold := cellThresholdFrac * float64(band.Height())

	var out []cluster
	start := -1
	for x := 0; x <= w; x++ {
		above := x < w && proj[x] > threshold
		switch {
		case above && start < 0:
			start = x
		case !above && start >= 0:
			mass := sumRange(proj, start, x)
			if mass >= minClusterArea {
				out = append(out, cluster{
					x1:   utils.ClampInt(start-cellPadding, 0, w),
					x2:   utils.ClampInt(x+cellPadding, 0, w),
					mass: mass,
				})
			}
			start = -1
		}
	}
	return out
}

// cellCenters maps cols output slots onto the detected clusters. With at
// least cols clusters the list is subsampled evenly; with fewer, the surplus
// slots are distributed across the gaps around the clusters proportionally
// to gap width, so empty cells land in the widest empty regions.
func cellCenters(clusters []cluster, cols, w int) []int {
	centers := make([]int, 0, cols)
	switch {
	case len(clusters) == 0:
		for i := 0; i < cols; i++ {
			centers = append(centers, (2*i+1)*w/(2*cols))
		}
	case len(clusters) >= cols:
		for i := 0; i < cols; i++ {
			c := clusters[i*len(clusters)/cols]
			centers = append(centers, (c.x1+c.x2)/2)
		}
	default:
		centers = distributeSurplus(clusters, cols, w)
	}
	return centers
}

// distributeSurplus assigns one slot per cluster and spreads the remaining
// slots across the empty gaps (before, between and after clusters) by width.
func distributeSurplus(clusters []cluster, cols, w int) []int {
	surplus := cols - len(clusters)

	// Gap i precedes cluster i; the final gap follows the last cluster.
	gaps := make([]int, len(clusters)+1)
	prev := 0
	for i, c := range clusters {
		gaps[i] = c.x1 - prev
		prev = c.x2
	}
	gaps[len(clusters)] = w - prev

	totalGap := 0
	for _, g := range gaps {
		totalGap += g
	}

	// Proportional allocation with remainder to the widest gaps.
	alloc := make([]int, len(gaps))
	assigned := 0
	if totalGap > 0 {
		for i, g := range gaps {
			alloc[i] = surplus * g / totalGap
			assigned += alloc[i]
		}
	}
	for assigned < surplus {
		widest := 0
		for i := range gaps {
			if gaps[i]-alloc[i] > gaps[widest]-alloc[widest] {
				widest = i
			}
		}
		alloc[widest]++
		assigned++
	}

	centers := make([]int, 0, cols)
	prev = 0
	for i, c := range clusters {
		for k := 0; k < alloc[i]; k++ {
			centers = append(centers, prev+(2*k+1)*(c.x1-prev)/(2*alloc[i]))
		}
		centers = append(centers, (c.x1+c.x2)/2)
		prev = c.x2
	}
	for k := 0; k < alloc[len(clusters)]; k++ {
		centers = append(centers, prev+(2*k+1)*(w-prev)/(2*alloc[len(clusters)]))
	}
	return centers
}

// partition converts ordered cell centers into a gap-free partition of
// [0, w): boundaries sit at midpoints between consecutive centers.
func partition(centers []int, band grid.Band, w int) []image.Rectangle {
	cols := len(centers)
	cells := make([]image.Rectangle, cols)
	lo := 0
	for i := 0; i < cols; i++ {
		hi := w
		if i+1 < cols {
			hi = (centers[i] + centers[i+1]) / 2
			hi = utils.ClampInt(hi, lo+1, w-(cols-1-i))
		}
		cells[i] = image.Rect(lo, band.Y1, hi, band.Y2)
		lo = hi
	}
	return cells
}
