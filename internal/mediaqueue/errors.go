package mediaqueue

import "github.com/vmonin/semknow/internal/engerr"

// errNoTargetChunk reports that a task's document no longer carries the
// placeholder/ResultChunkID chunk it was meant to enrich (e.g. the
// document was deleted or re-ingested out from under a queued task).
var errNoTargetChunk = engerr.SchemaErr("media task target chunk not found", nil)
