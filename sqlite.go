package nutrition

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"

	"nutrition/internal/log"
)

// UnitResolver hands out shared Unit instances, normally a *Registry.
type UnitResolver interface {
	Unit(ctx context.Context, name string) (*Unit, error)
}

// Store keeps the catalog and ingredient data in SQLite. The conversion graph
// is never stored; it is rebuilt from these rows.
type Store struct {
	db *sql.DB
}

// OpenStore opens or creates the database at path with foreign keys
// enforced, so deleting an ingredient removes its child rows.
func OpenStore(path string) (*Store, error) {
	dsn := path + "?_foreign_keys=on"
	if strings.Contains(path, "?") {
		dsn = path + "&_foreign_keys=on"
	}
	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, err
	}
	s := &Store{db: db}
	if err := s.initSchema(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("init schema: %w", err)
	}
	log.Debug(log.CatStore, "store opened", "path", path)
	return s, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) initSchema() error {
	queries := []string{
		`CREATE TABLE IF NOT EXISTS units (
			name TEXT PRIMARY KEY,
			type TEXT NOT NULL,
			singular TEXT,
			plural TEXT
		);`,
		`CREATE TABLE IF NOT EXISTS unit_aliases (
			unit TEXT NOT NULL REFERENCES units(name) ON DELETE CASCADE,
			alias TEXT NOT NULL,
			position INTEGER NOT NULL,
			PRIMARY KEY (unit, alias)
		);`,
		`CREATE TABLE IF NOT EXISTS unit_conversions (
			pair_a TEXT NOT NULL,
			pair_b TEXT NOT NULL,
			unit_a TEXT NOT NULL REFERENCES units(name),
			value_a REAL NOT NULL,
			unit_b TEXT NOT NULL REFERENCES units(name),
			value_b REAL NOT NULL,
			position INTEGER NOT NULL,
			PRIMARY KEY (pair_a, pair_b)
		);`,
		`CREATE TABLE IF NOT EXISTS ingredients (
			id TEXT PRIMARY KEY,
			name TEXT NOT NULL UNIQUE,
			cost REAL,
			cost_unit TEXT,
			cost_value REAL
		);`,
		`CREATE TABLE IF NOT EXISTS ingredient_flags (
			ingredient_id TEXT NOT NULL REFERENCES ingredients(id) ON DELETE CASCADE,
			flag TEXT NOT NULL,
			position INTEGER NOT NULL,
			PRIMARY KEY (ingredient_id, flag)
		);`,
		`CREATE TABLE IF NOT EXISTS ingredient_conversions (
			ingredient_id TEXT NOT NULL REFERENCES ingredients(id) ON DELETE CASCADE,
			unit_a TEXT NOT NULL,
			value_a REAL NOT NULL,
			unit_b TEXT NOT NULL,
			value_b REAL NOT NULL,
			position INTEGER NOT NULL
		);`,
		`CREATE TABLE IF NOT EXISTS ingredient_nutrients (
			ingredient_id TEXT NOT NULL REFERENCES ingredients(id) ON DELETE CASCADE,
			nutrient TEXT NOT NULL,
			nutrient_unit TEXT NOT NULL,
			nutrient_value REAL NOT NULL,
			subject_unit TEXT NOT NULL,
			subject_value REAL NOT NULL,
			PRIMARY KEY (ingredient_id, nutrient)
		);`,
	}
	for _, q := range queries {
		if _, err := s.db.Exec(q); err != nil {
			return err
		}
	}
	return nil
}

// ImportCatalog upserts the catalog's units and replaces the stored global
// conversions with the catalog's, keeping catalog order.
func (s *Store) ImportCatalog(ctx context.Context, cat *CatalogFile) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	for _, u := range cat.units {
		_, err := tx.ExecContext(ctx, `INSERT INTO units (name, type, singular, plural) VALUES (?, ?, ?, ?)
			ON CONFLICT(name) DO UPDATE SET type = excluded.type, singular = excluded.singular,
			plural = excluded.plural`,
			u.Name, u.Type.String(), u.SingularAbbr, u.PluralAbbr)
		if err != nil {
			return fmt.Errorf("unit %s: %w", u.Name, err)
		}
		if _, err := tx.ExecContext(ctx, `DELETE FROM unit_aliases WHERE unit = ?`, u.Name); err != nil {
			return err
		}
		for i, alias := range u.Aliases {
			if _, err := tx.ExecContext(ctx, `INSERT OR IGNORE INTO unit_aliases (unit, alias, position) VALUES (?, ?, ?)`,
				u.Name, alias, i); err != nil {
				return fmt.Errorf("unit %s alias %q: %w", u.Name, alias, err)
			}
		}
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM unit_conversions`); err != nil {
		return err
	}
	for i, conv := range cat.conversions {
		a, b := conv.Sides()
		av, _ := a.Value()
		bv, _ := b.Value()
		pair := conv.UnitNames()
		_, err := tx.ExecContext(ctx, `INSERT INTO unit_conversions (pair_a, pair_b, unit_a, value_a, unit_b, value_b, position)
			VALUES (?, ?, ?, ?, ?, ?, ?)`,
			pair.A, pair.B, a.UnitName(), av, b.UnitName(), bv, i)
		if err != nil {
			return fmt.Errorf("conversion %s: %w", pair, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return err
	}
	log.Info(log.CatStore, "catalog imported", "units", len(cat.units), "conversions", len(cat.conversions))
	return nil
}

type queryer interface {
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
}

// queryStrings reads the single text column of every row query returns.
func queryStrings(ctx context.Context, q queryer, query string, args ...any) ([]string, error) {
	rows, err := q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []string
	for rows.Next() {
		var v string
		if err := rows.Scan(&v); err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, rows.Err()
}

func scanUnit(scanner interface{ Scan(...any) error }) (*Unit, error) {
	var (
		u      Unit
		typ    string
		single sql.NullString
		plural sql.NullString
	)
	if err := scanner.Scan(&u.Name, &typ, &single, &plural); err != nil {
		return nil, err
	}
	t, err := ParseUnitType(typ)
	if err != nil {
		return nil, err
	}
	u.Type = t
	u.SingularAbbr = single.String
	u.PluralAbbr = plural.String
	return &u, nil
}

func (s *Store) loadAliases(ctx context.Context, u *Unit) error {
	aliases, err := queryStrings(ctx, s.db, `SELECT alias FROM unit_aliases WHERE unit = ? ORDER BY position`, u.Name)
	if err != nil {
		return fmt.Errorf("unit %s aliases: %w", u.Name, err)
	}
	u.Aliases = aliases
	return nil
}

func (s *Store) LoadUnit(ctx context.Context, name string) (*Unit, error) {
	row := s.db.QueryRowContext(ctx, `SELECT name, type, singular, plural FROM units WHERE name = ?`, name)
	u, err := scanUnit(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", ErrUnitNotFound, name)
	}
	if err != nil {
		return nil, err
	}
	if err := s.loadAliases(ctx, u); err != nil {
		return nil, err
	}
	return u, nil
}

func (s *Store) conversionFromRow(ctx context.Context, units UnitResolver, ua string, va float64, ub string, vb float64) (*UnitConversion, error) {
	a, err := units.Unit(ctx, ua)
	if err != nil {
		return nil, err
	}
	b, err := units.Unit(ctx, ub)
	if err != nil {
		return nil, err
	}
	return NewUnitConversion(NewQuantity(a, va), NewQuantity(b, vb))
}

// LoadConversion reads the global conversion for pair, taking its units from
// units so they are shared with the rest of the process.
func (s *Store) LoadConversion(ctx context.Context, units UnitResolver, pair UnitPair) (*UnitConversion, error) {
	var (
		ua, ub string
		va, vb float64
	)
	err := s.db.QueryRowContext(ctx, `SELECT unit_a, value_a, unit_b, value_b FROM unit_conversions WHERE pair_a = ? AND pair_b = ?`,
		pair.A, pair.B).Scan(&ua, &va, &ub, &vb)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", ErrUnitConversionNotFound, pair)
	}
	if err != nil {
		return nil, err
	}
	return s.conversionFromRow(ctx, units, ua, va, ub, vb)
}

func (s *Store) ConversionPairs(ctx context.Context) ([]UnitPair, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT pair_a, pair_b FROM unit_conversions ORDER BY position`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var pairs []UnitPair
	for rows.Next() {
		var p UnitPair
		if err := rows.Scan(&p.A, &p.B); err != nil {
			return nil, err
		}
		pairs = append(pairs, p)
	}
	return pairs, rows.Err()
}

// Catalog reads every stored unit and global conversion back into a catalog.
func (s *Store) Catalog(ctx context.Context) (*CatalogFile, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT name, type, singular, plural FROM units ORDER BY rowid`)
	if err != nil {
		return nil, err
	}
	var units []*Unit
	byName := make(map[string]*Unit)
	for rows.Next() {
		u, err := scanUnit(rows)
		if err != nil {
			rows.Close()
			return nil, err
		}
		units = append(units, u)
		byName[u.Name] = u
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, err
	}
	for _, u := range units {
		if err := s.loadAliases(ctx, u); err != nil {
			return nil, err
		}
	}

	resolver := unitMap(byName)
	pairs, err := s.ConversionPairs(ctx)
	if err != nil {
		return nil, err
	}
	convs := make([]*UnitConversion, 0, len(pairs))
	for _, p := range pairs {
		c, err := s.LoadConversion(ctx, resolver, p)
		if err != nil {
			return nil, err
		}
		convs = append(convs, c)
	}
	return NewCatalog(nil, units, convs)
}

type unitMap map[string]*Unit

func (m unitMap) Unit(_ context.Context, name string) (*Unit, error) {
	u, ok := m[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnitNotFound, name)
	}
	return u, nil
}

// SaveIngredient inserts or replaces an ingredient with its conversions and
// nutrient data.
func (s *Store) SaveIngredient(ctx context.Context, ing *Ingredient) error {
	if ing.ID == uuid.Nil {
		ing.ID = uuid.New()
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	var costUnit sql.NullString
	var costValue sql.NullFloat64
	if ing.CostQuantity.Unit() != nil {
		costUnit = sql.NullString{String: ing.CostQuantity.UnitName(), Valid: true}
		if v, err := ing.CostQuantity.Value(); err == nil {
			costValue = sql.NullFloat64{Float64: v, Valid: true}
		}
	}
	_, err = tx.ExecContext(ctx, `INSERT INTO ingredients (id, name, cost, cost_unit, cost_value) VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET name = excluded.name, cost = excluded.cost, cost_unit = excluded.cost_unit,
		cost_value = excluded.cost_value`,
		ing.ID.String(), ing.Name, ing.Cost, costUnit, costValue)
	if err != nil {
		return fmt.Errorf("ingredient %s: %w", ing.Name, err)
	}

	if _, err := tx.ExecContext(ctx, `DELETE FROM ingredient_flags WHERE ingredient_id = ?`, ing.ID.String()); err != nil {
		return err
	}
	for i, flag := range ing.Flags {
		if _, err := tx.ExecContext(ctx, `INSERT OR IGNORE INTO ingredient_flags (ingredient_id, flag, position) VALUES (?, ?, ?)`,
			ing.ID.String(), flag, i); err != nil {
			return fmt.Errorf("ingredient %s flag %q: %w", ing.Name, flag, err)
		}
	}

	if _, err := tx.ExecContext(ctx, `DELETE FROM ingredient_conversions WHERE ingredient_id = ?`, ing.ID.String()); err != nil {
		return err
	}
	for i, conv := range ing.conversions {
		a, b := conv.Sides()
		av, errA := a.Value()
		bv, errB := b.Value()
		if errA != nil || errB != nil {
			return fmt.Errorf("ingredient %s: %w: %s", ing.Name, ErrUndefinedConversion, conv.UnitNames())
		}
		_, err := tx.ExecContext(ctx, `INSERT INTO ingredient_conversions (ingredient_id, unit_a, value_a, unit_b, value_b, position)
			VALUES (?, ?, ?, ?, ?, ?)`, ing.ID.String(), a.UnitName(), av, b.UnitName(), bv, i)
		if err != nil {
			return err
		}
	}

	if _, err := tx.ExecContext(ctx, `DELETE FROM ingredient_nutrients WHERE ingredient_id = ?`, ing.ID.String()); err != nil {
		return err
	}
	for name, ratio := range ing.Nutrients {
		nv, errN := ratio.Nutrient.Value()
		sv, errS := ratio.Subject.Value()
		if errN != nil || errS != nil {
			return fmt.Errorf("ingredient %s nutrient %s: %w", ing.Name, name, ErrValueNotSet)
		}
		_, err := tx.ExecContext(ctx, `INSERT INTO ingredient_nutrients (ingredient_id, nutrient, nutrient_unit, nutrient_value, subject_unit, subject_value)
			VALUES (?, ?, ?, ?, ?, ?)`, ing.ID.String(), name, ratio.Nutrient.UnitName(), nv, ratio.Subject.UnitName(), sv)
		if err != nil {
			return err
		}
	}
	return tx.Commit()
}

func (s *Store) LoadIngredient(ctx context.Context, units UnitResolver, name string) (*Ingredient, error) {
	var (
		id        string
		cost      sql.NullFloat64
		costUnit  sql.NullString
		costValue sql.NullFloat64
	)
	err := s.db.QueryRowContext(ctx, `SELECT id, cost, cost_unit, cost_value FROM ingredients WHERE name = ?`, name).
		Scan(&id, &cost, &costUnit, &costValue)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: ingredient %s", ErrNotFound, name)
	}
	if err != nil {
		return nil, err
	}

	ing := NewIngredient(name)
	ing.ID, err = uuid.Parse(id)
	if err != nil {
		return nil, fmt.Errorf("ingredient %s: %w", name, err)
	}
	ing.Cost = cost.Float64
	ing.Flags, err = queryStrings(ctx, s.db, `SELECT flag FROM ingredient_flags WHERE ingredient_id = ? ORDER BY position`, id)
	if err != nil {
		return nil, fmt.Errorf("ingredient %s flags: %w", name, err)
	}
	if costUnit.Valid {
		u, err := units.Unit(ctx, costUnit.String)
		if err != nil {
			return nil, err
		}
		ing.CostQuantity = UndefinedQuantity(u)
		if costValue.Valid {
			ing.CostQuantity = NewQuantity(u, costValue.Float64)
		}
	}

	if err := s.loadIngredientConversions(ctx, units, ing); err != nil {
		return nil, err
	}
	if err := s.loadIngredientNutrients(ctx, units, ing); err != nil {
		return nil, err
	}
	return ing, nil
}

// DeleteIngredient removes the named ingredient. Its conversions, flags and
// nutrient rows go with it through the foreign keys.
func (s *Store) DeleteIngredient(ctx context.Context, name string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM ingredients WHERE name = ?`, name)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("%w: ingredient %s", ErrNotFound, name)
	}
	log.Info(log.CatStore, "ingredient deleted", "name", name)
	return nil
}

func (s *Store) loadIngredientConversions(ctx context.Context, units UnitResolver, ing *Ingredient) error {
	rows, err := s.db.QueryContext(ctx, `SELECT unit_a, value_a, unit_b, value_b FROM ingredient_conversions
		WHERE ingredient_id = ? ORDER BY position`, ing.ID.String())
	if err != nil {
		return err
	}
	defer rows.Close()
	for rows.Next() {
		var (
			ua, ub string
			va, vb float64
		)
		if err := rows.Scan(&ua, &va, &ub, &vb); err != nil {
			return err
		}
		conv, err := s.conversionFromRow(ctx, units, ua, va, ub, vb)
		if err != nil {
			return err
		}
		if err := ing.AddConversion(conv); err != nil {
			return err
		}
	}
	return rows.Err()
}

func (s *Store) loadIngredientNutrients(ctx context.Context, units UnitResolver, ing *Ingredient) error {
	rows, err := s.db.QueryContext(ctx, `SELECT nutrient, nutrient_unit, nutrient_value, subject_unit, subject_value
		FROM ingredient_nutrients WHERE ingredient_id = ?`, ing.ID.String())
	if err != nil {
		return err
	}
	defer rows.Close()
	for rows.Next() {
		var (
			nutrient, nu, su string
			nv, sv           float64
		)
		if err := rows.Scan(&nutrient, &nu, &nv, &su, &sv); err != nil {
			return err
		}
		nUnit, err := units.Unit(ctx, nu)
		if err != nil {
			return err
		}
		sUnit, err := units.Unit(ctx, su)
		if err != nil {
			return err
		}
		ing.Nutrients[nutrient] = NutrientRatio{
			Nutrient: NewQuantity(nUnit, nv),
			Subject:  NewQuantity(sUnit, sv),
		}
	}
	return rows.Err()
}

// Install points the registry's unit, conversion and ingredient loaders at
// the store. Conversions and ingredients resolve their units through reg.
func (s *Store) Install(reg *Registry) {
	reg.SetUnitLoader(s.LoadUnit)
	reg.SetConversionLoader(func(ctx context.Context, pair UnitPair) (*UnitConversion, error) {
		return s.LoadConversion(ctx, reg, pair)
	})
	reg.SetConversionIndexLoader(s.ConversionPairs)
	reg.SetIngredientLoader(func(ctx context.Context, name string) (*Ingredient, error) {
		return s.LoadIngredient(ctx, reg, name)
	})
}
