// Package detector turns join events and operator commands into storage
// calls and formatted alt reports.
//
// A Detector holds a snapshot of the retention window and message templates
// that can be swapped at runtime with Update. All methods block on the store
// and are meant to run on a dispatch.Pool worker:
//
//	dispatch.Go(pool, mainQueue,
//	    func(ctx context.Context) (*detector.Notice, error) {
//	        return d.OnJoin(ctx, event)
//	    },
//	    func(n *detector.Notice, err error) {
//	        if err == nil && n != nil {
//	            fmt.Println(n.Message)
//	        }
//	    })
package detector
