package driver

const (
	UpsertInitiativeQuery = `
		MERGE (i:Initiative {identifier: $identifier})
		SET i.title = coalesce($title, i.title),
			i.description = coalesce($description, i.description)
		RETURN i.identifier AS identifier
	`

	DeleteInitiativeQuery = `
		MATCH (i:Initiative {identifier: $identifier})
		OPTIONAL MATCH (i)-[:HAS_TASK]->(t:Task)
		DETACH DELETE i, t
	`

	UpsertTaskQuery = `
		MATCH (i:Initiative {identifier: $initiative})
		MERGE (i)-[:HAS_TASK]->(t:Task {identifier: $identifier})
		SET t.title = coalesce($title, t.title),
			t.description = coalesce($description, t.description),
			t.checklist = coalesce($checklist, t.checklist)
		RETURN t.identifier AS identifier
	`

	DeleteTaskQuery = `
		MATCH (:Initiative {identifier: $initiative})-[:HAS_TASK]->(t:Task {identifier: $identifier})
		DETACH DELETE t
	`

	GetInitiativeQuery = `
		MATCH (i:Initiative {identifier: $identifier})
		OPTIONAL MATCH (i)-[:HAS_TASK]->(t:Task)
		RETURN i, t
		ORDER BY t.identifier
	`

	ListInitiativesQuery = `
		MATCH (i:Initiative)
		RETURN i
		ORDER BY i.identifier
	`
)
