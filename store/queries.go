package store

const (
	pinSnapshotQuery = `SELECT COUNT(*) FROM classifications`

	countQuery = `SELECT COUNT(*) FROM classifications`

	deleteByKeyQuery = `DELETE FROM classifications WHERE id = ?`

	insertQuery = `
		INSERT INTO classifications (id, item, classifier, criterion, prediction, prob, score, contents, terms)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`

	// two rows are enough to tell "exactly one" from "many"
	selectKeysByItemQuery = `SELECT id FROM classifications WHERE item = ? LIMIT 2`

	deleteByItemQuery = `DELETE FROM classifications WHERE item = ?`

	searchSelect = `SELECT item, classifier, criterion, prediction, prob FROM classifications`

	searchOrder = `ORDER BY score DESC, rowid ASC`
)
