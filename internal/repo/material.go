package repo

import (
	"context"

	"github.com/crucial707/trade-tracker/internal/models"
)

const materialColumns = `id, owner_id, name, unit, quantity, min_stock, created_at`

func scanMaterial(row rowScanner) (models.Material, error) {
	var m models.Material
	err := row.Scan(&m.ID, &m.OwnerID, &m.Name, &m.Unit, &m.Quantity, &m.MinStock, &m.CreatedAt)
	return m, err
}

func (s *Store) GetMaterial(ctx context.Context, id int) (models.Material, error) {
	m, err := scanMaterial(s.DB.QueryRowContext(ctx,
		`SELECT `+materialColumns+` FROM materials WHERE id = $1`, id))
	if err != nil {
		return models.Material{}, mapError(err)
	}
	return m, nil
}

func (s *Store) ListMaterials(ctx context.Context) ([]models.Material, error) {
	rows, err := s.DB.QueryContext(ctx, `SELECT `+materialColumns+` FROM materials ORDER BY id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	materials := []models.Material{}
	for rows.Next() {
		m, err := scanMaterial(rows)
		if err != nil {
			return nil, err
		}
		materials = append(materials, m)
	}
	return materials, rows.Err()
}

func (t *pgTx) InsertMaterial(ctx context.Context, m models.Material) (models.Material, error) {
	err := t.q.QueryRowContext(ctx,
		`INSERT INTO materials (owner_id, name, unit, quantity, min_stock, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6)
		 RETURNING id`,
		m.OwnerID, m.Name, m.Unit, m.Quantity, m.MinStock, m.CreatedAt,
	).Scan(&m.ID)
	if err != nil {
		return models.Material{}, mapError(err)
	}
	return m, nil
}

func (t *pgTx) LockMaterial(ctx context.Context, id int) (models.Material, error) {
	m, err := scanMaterial(t.q.QueryRowContext(ctx,
		`SELECT `+materialColumns+` FROM materials WHERE id = $1 FOR UPDATE`, id))
	if err != nil {
		return models.Material{}, mapError(err)
	}
	return m, nil
}

// UpdateMaterial writes an already-validated row; the CHECK constraints
// reject negatives regardless.
func (t *pgTx) UpdateMaterial(ctx context.Context, m models.Material) error {
	res, err := t.q.ExecContext(ctx,
		`UPDATE materials SET name = $1, unit = $2, quantity = $3, min_stock = $4 WHERE id = $5`,
		m.Name, m.Unit, m.Quantity, m.MinStock, m.ID,
	)
	if err != nil {
		return mapError(err)
	}
	return expectOne(res)
}

func (t *pgTx) DeleteMaterial(ctx context.Context, id int) error {
	res, err := t.q.ExecContext(ctx, `DELETE FROM materials WHERE id = $1`, id)
	if err != nil {
		return mapError(err)
	}
	return expectOne(res)
}
