package detection

import (
	"github.com/ironsheep/image-features-mcp/internal/compute"
	"github.com/ironsheep/image-features-mcp/internal/raster"
	"github.com/ironsheep/image-features-mcp/internal/sampler"
)

var program = &compute.Program{
	ID:     "detection",
	Source: "feature marking",
	Entries: map[string]compute.KernelFunc{
		"mark_features": func(id compute.Index, args compute.Args) {
			img := compute.Arg[*raster.Image](args, 0)
			color := compute.Arg[sampler.Color](args, 1)
			features := compute.Arg[[]Feature](args, 2)

			f := features[id.X]
			if f.X < 0 || f.Y < 0 || f.X >= img.Width || f.Y >= img.Height {
				return
			}
			off := img.Offset(f.X, f.Y)
			for c := 0; c < img.Channels; c++ {
				img.Set(off+c, color[c])
			}
		},
	},
}

// MarkFeatures paints the pixel of every feature with color, in place. Only
// the image's channels are written, so a gray image takes color[0]. Features
// outside the image are skipped and repeated positions are painted once.
func MarkFeatures(q compute.Backend, img *raster.Image, color sampler.Color, features []Feature) error {
	features = uniquePositions(features)
	if len(features) == 0 {
		return nil
	}
	return compute.Run(q, program, "mark_features", compute.Range1(len(features)), img, color, features)
}

// uniquePositions drops features whose (X, Y) was already seen, so no two
// work items write the same pixel.
func uniquePositions(features []Feature) []Feature {
	seen := make(map[[2]int]struct{}, len(features))
	out := make([]Feature, 0, len(features))
	for _, f := range features {
		p := [2]int{f.X, f.Y}
		if _, ok := seen[p]; ok {
			continue
		}
		seen[p] = struct{}{}
		out = append(out, f)
	}
	return out
}
