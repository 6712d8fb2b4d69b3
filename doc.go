// Package posterkit turns AI-generated poster markup into structured
// elements and batch-renders personalized poster images with headless Chrome.
//
// # Parsing
//
// Parse recovers a canvas and an ordered list of positioned text and image
// elements from markup of either known generation dialect. It never fails:
// unreadable input yields an empty element list and the poster-type default
// canvas. Validate reports structural defects without blocking:
//
//	result := posterkit.Parse(markup, posterkit.PosterInvitation)
//	v := posterkit.Validate(result.Elements)
//	for _, w := range v.Warnings {
//	    log.Println(w)
//	}
//
// # Batch Rendering
//
// ExpandVariants substitutes each variant name into a template, and a Batch
// renders the resulting tasks one at a time:
//
//	specs := posterkit.ExpandVariants(template, "{{name}}", []string{"Alice", "Bob"})
//	renderer := posterkit.NewRodRenderer()
//	defer renderer.Close()
//
//	batch, err := posterkit.NewBatch(specs, posterkit.Size{Width: 800, Height: 1200},
//	    "Gala", renderer, posterkit.WithSuffix("invite"))
//	if err != nil {
//	    log.Fatal(err)
//	}
//	if err := batch.Start(ctx); err != nil {
//	    log.Fatal(err)
//	}
//	batch.DownloadAll(ctx, posterkit.DirDeliverer{Dir: "out"})
//
// A batch can be paused, resumed, cancelled and retried from other
// goroutines. Pause takes effect at the next task boundary; Cancel aborts the
// in-flight task at its next suspension point and leaves it pending.
// Subscribe delivers per-task and overall progress events.
//
// # Rendering Surfaces
//
// The Mounter and Surface interfaces abstract the rasterizer. RodRenderer
// mounts each task in a fresh headless Chrome page that is closed on every
// exit path. Use RendererPool to share browsers between concurrent batches.
package posterkit
