// Package quiver is the asynchronous result-streaming core of the quiver
// database driver.
//
// A Session issues queries on one logical connection and hands back cursors
// that callers drive one record at a time:
//
//	fut := session.Submit("UNWIND [1,2,3] AS x RETURN x", nil)
//	cursor, err := fut.Await(ctx)
//	...
//	for {
//		ok, err := cursor.FetchNext().Await(ctx)
//		if err != nil || !ok {
//			break
//		}
//		use(cursor.Current())
//	}
//
// Every protocol completion runs on the connection's cooperative execution
// context (async.Loop). Callers outside that context block with Await;
// listeners attached with AddListener run on the loop and may submit further
// queries, which are sent strictly in submission order.
package quiver
