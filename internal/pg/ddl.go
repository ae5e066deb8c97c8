package pg

import (
	"fmt"
	"hash/fnv"
	"strings"

	"tablekit/internal/schema"
)

// Все функции ниже чистые: на вход определения, на выход список DDL
// в порядке выполнения. Каждое имя проходит schema.QuoteIdent в месте вставки.

const maxIdentLen = 63

// builder накапливает первую ошибку квотирования, чтобы не проверять её после каждого q().
type builder struct {
	stmts []string
	err   error
}

func (b *builder) q(name string) string {
	if b.err != nil {
		return ""
	}
	s, err := schema.QuoteIdent(name)
	if err != nil {
		b.err = err
		return ""
	}
	return s
}

func (b *builder) add(format string, args ...any) {
	if b.err != nil {
		return
	}
	b.stmts = append(b.stmts, fmt.Sprintf(format, args...))
}

func (b *builder) result() ([]string, error) {
	if b.err != nil {
		return nil, b.err
	}
	return b.stmts, nil
}

// boundedName укладывает имя в лимит Postgres; длинные имена укорачиваются
// с хеш-суффиксом, чтобы не совпасть после усечения.
func boundedName(name string) string {
	if len(name) <= maxIdentLen {
		return name
	}
	h := fnv.New32a()
	_, _ = h.Write([]byte(name))
	return fmt.Sprintf("%s_%08x", name[:maxIdentLen-9], h.Sum32())
}

// PKName: "pk_<table>_<col>".
func PKName(table, col string) string { return boundedName("pk_" + table + "_" + col) }

// UniqueName: "uq_<table>_<col>".
func UniqueName(table, col string) string { return boundedName("uq_" + table + "_" + col) }

// SequenceName: "<table>_<col>_seq", как у SERIAL.
func SequenceName(table, col string) string { return boundedName(table + "_" + col + "_seq") }

// hasUniqueConstraint: у первичного ключа уникальность уже обеспечена PRIMARY KEY.
func hasUniqueConstraint(f schema.FieldDefinition) bool {
	return f.IsUnique && !f.IsPrimaryKey
}

// literalDefault: DEFAULT для колонки без автоинкремента; "" если его быть не должно.
func literalDefault(f schema.FieldDefinition) (string, error) {
	if f.IsAutoIncrement || f.IsRequired || f.IsPrimaryKey {
		return "", nil
	}
	return schema.DefaultLiteral(f)
}

func nextval(b *builder, table, col string) string {
	return "nextval('" + b.q(SequenceName(table, col)) + "')"
}

// columnDef: определение колонки; для автоинкремента сначала нужна последовательность,
// а после создания колонки её надо привязать (OWNED BY): это pre/post.
func columnDef(b *builder, table string, f schema.FieldDefinition) (def string, pre, post []string) {
	col := b.q(f.Name)
	phys := f.FieldType.PhysicalType()
	if phys == "" {
		b.err = fmt.Errorf("field %q: unsupported type %s", f.Name, f.FieldType)
		return "", nil, nil
	}
	parts := []string{col, phys}

	if f.IsAutoIncrement {
		seq := b.q(SequenceName(table, f.Name))
		pre = append(pre, fmt.Sprintf("CREATE SEQUENCE %s AS integer", seq))
		post = append(post, fmt.Sprintf("ALTER SEQUENCE %s OWNED BY %s.%s", seq, b.q(table), col))
		parts = append(parts, "NOT NULL DEFAULT "+nextval(b, table, f.Name))
	}
	if f.IsRequired {
		parts = append(parts, "NOT NULL")
	}
	if f.IsPrimaryKey {
		parts = append(parts, "CONSTRAINT "+b.q(PKName(table, f.Name))+" PRIMARY KEY")
	}
	if hasUniqueConstraint(f) {
		parts = append(parts, "CONSTRAINT "+b.q(UniqueName(table, f.Name))+" UNIQUE")
	}
	if !f.IsRequired && !f.IsPrimaryKey {
		lit, err := schema.DefaultLiteral(f)
		if err != nil {
			b.err = err
			return "", nil, nil
		}
		parts = append(parts, "DEFAULT "+lit)
	}
	return strings.Join(parts, " "), pre, post
}

// CreateTable: CREATE TABLE (или CREATE VIEW для представлений).
func CreateTable(t schema.TableDefinition, fields []schema.FieldDefinition) ([]string, error) {
	if t.IsView {
		return CreateView(t)
	}
	if len(fields) == 0 {
		return nil, fmt.Errorf("table %q: no fields", t.Name)
	}
	b := &builder{}
	table := b.q(t.Name)
	var defs, pre, post []string
	for _, f := range fields {
		def, p1, p2 := columnDef(b, t.Name, f)
		defs = append(defs, def)
		pre = append(pre, p1...)
		post = append(post, p2...)
	}
	for _, s := range pre {
		b.add("%s", s)
	}
	b.add("CREATE TABLE %s (\n\t%s\n)", table, strings.Join(defs, ",\n\t"))
	for _, s := range post {
		b.add("%s", s)
	}
	return b.result()
}

// CreateView: представление по сохранённому SELECT.
func CreateView(t schema.TableDefinition) ([]string, error) {
	if t.ViewSQL == nil {
		return nil, fmt.Errorf("view %q: empty SQL", t.Name)
	}
	b := &builder{}
	body := strings.TrimSuffix(strings.TrimSpace(*t.ViewSQL), ";")
	b.add("CREATE VIEW %s AS %s", b.q(t.Name), body)
	return b.result()
}

// DropTable удаляет физическую таблицу; последовательности OWNED BY уходят вместе с ней.
func DropTable(t schema.TableDefinition) ([]string, error) {
	b := &builder{}
	kind := "TABLE"
	if t.IsView {
		kind = "VIEW"
	}
	b.add("DROP %s IF EXISTS %s", kind, b.q(t.Name))
	return b.result()
}

// RenameTable переименовывает таблицу и всё, что названо по её имени.
func RenameTable(t schema.TableDefinition, newName string, fields []schema.FieldDefinition) ([]string, error) {
	b := &builder{}
	if t.IsView {
		b.add("ALTER VIEW %s RENAME TO %s", b.q(t.Name), b.q(newName))
		return b.result()
	}
	b.add("ALTER TABLE %s RENAME TO %s", b.q(t.Name), b.q(newName))
	for _, f := range fields {
		if f.IsPrimaryKey {
			b.add("ALTER TABLE %s RENAME CONSTRAINT %s TO %s", b.q(newName),
				b.q(PKName(t.Name, f.Name)), b.q(PKName(newName, f.Name)))
		}
		if hasUniqueConstraint(f) {
			b.add("ALTER TABLE %s RENAME CONSTRAINT %s TO %s", b.q(newName),
				b.q(UniqueName(t.Name, f.Name)), b.q(UniqueName(newName, f.Name)))
		}
		if f.IsAutoIncrement {
			b.add("ALTER SEQUENCE %s RENAME TO %s",
				b.q(SequenceName(t.Name, f.Name)), b.q(SequenceName(newName, f.Name)))
		}
	}
	return b.result()
}

// AddColumns: все колонки одним ALTER TABLE ... ADD COLUMN ..., ADD COLUMN ....
func AddColumns(table string, fields []schema.FieldDefinition) ([]string, error) {
	if len(fields) == 0 {
		return nil, fmt.Errorf("table %q: no fields to add", table)
	}
	b := &builder{}
	var clauses, pre, post []string
	for _, f := range fields {
		def, p1, p2 := columnDef(b, table, f)
		clauses = append(clauses, "ADD COLUMN "+def)
		pre = append(pre, p1...)
		post = append(post, p2...)
	}
	for _, s := range pre {
		b.add("%s", s)
	}
	b.add("ALTER TABLE %s %s", b.q(table), strings.Join(clauses, ", "))
	for _, s := range post {
		b.add("%s", s)
	}
	return b.result()
}

// DropColumn: ограничения и последовательность колонки удаляются вместе с ней.
func DropColumn(table, col string) ([]string, error) {
	b := &builder{}
	b.add("ALTER TABLE %s DROP COLUMN %s", b.q(table), b.q(col))
	return b.result()
}

// RenameColumn переименовывает колонку вместе с её именованными ограничениями и последовательностью.
func RenameColumn(table string, f schema.FieldDefinition, newName string) ([]string, error) {
	b := &builder{}
	tbl := b.q(table)
	b.add("ALTER TABLE %s RENAME COLUMN %s TO %s", tbl, b.q(f.Name), b.q(newName))
	if f.IsPrimaryKey {
		b.add("ALTER TABLE %s RENAME CONSTRAINT %s TO %s", tbl,
			b.q(PKName(table, f.Name)), b.q(PKName(table, newName)))
	}
	if hasUniqueConstraint(f) {
		b.add("ALTER TABLE %s RENAME CONSTRAINT %s TO %s", tbl,
			b.q(UniqueName(table, f.Name)), b.q(UniqueName(table, newName)))
	}
	if f.IsAutoIncrement {
		b.add("ALTER SEQUENCE %s RENAME TO %s",
			b.q(SequenceName(table, f.Name)), b.q(SequenceName(table, newName)))
	}
	return b.result()
}

// AlterColumnType меняет тип; в timestamp переводим через текст.
func AlterColumnType(table, col string, to schema.FieldType) ([]string, error) {
	b := &builder{}
	phys := to.PhysicalType()
	if phys == "" {
		return nil, fmt.Errorf("column %q: unsupported type %s", col, to)
	}
	c := b.q(col)
	using := c + "::" + phys
	if to == schema.Timestamp {
		using = c + "::text::timestamp"
	}
	b.add("ALTER TABLE %s ALTER COLUMN %s TYPE %s USING %s", b.q(table), c, phys, using)
	return b.result()
}

func SetPrimaryKey(table, col string) ([]string, error) {
	b := &builder{}
	b.add("ALTER TABLE %s ADD CONSTRAINT %s PRIMARY KEY (%s)", b.q(table), b.q(PKName(table, col)), b.q(col))
	return b.result()
}

func DropPrimaryKey(table, col string) ([]string, error) {
	b := &builder{}
	b.add("ALTER TABLE %s DROP CONSTRAINT IF EXISTS %s", b.q(table), b.q(PKName(table, col)))
	return b.result()
}

func SetUnique(table, col string) ([]string, error) {
	b := &builder{}
	b.add("ALTER TABLE %s ADD CONSTRAINT %s UNIQUE (%s)", b.q(table), b.q(UniqueName(table, col)), b.q(col))
	return b.result()
}

func DropUnique(table, col string) ([]string, error) {
	b := &builder{}
	b.add("ALTER TABLE %s DROP CONSTRAINT IF EXISTS %s", b.q(table), b.q(UniqueName(table, col)))
	return b.result()
}

func SetNotNull(table, col string) ([]string, error) {
	b := &builder{}
	b.add("ALTER TABLE %s ALTER COLUMN %s SET NOT NULL", b.q(table), b.q(col))
	return b.result()
}

func DropNotNull(table, col string) ([]string, error) {
	b := &builder{}
	b.add("ALTER TABLE %s ALTER COLUMN %s DROP NOT NULL", b.q(table), b.q(col))
	return b.result()
}

// SetDefault ставит литерал из default_value поля (или DEFAULT NULL).
func SetDefault(table string, f schema.FieldDefinition) ([]string, error) {
	lit, err := schema.DefaultLiteral(f)
	if err != nil {
		return nil, err
	}
	b := &builder{}
	b.add("ALTER TABLE %s ALTER COLUMN %s SET DEFAULT %s", b.q(table), b.q(f.Name), lit)
	return b.result()
}

func DropDefault(table, col string) ([]string, error) {
	b := &builder{}
	b.add("ALTER TABLE %s ALTER COLUMN %s DROP DEFAULT", b.q(table), b.q(col))
	return b.result()
}

// SetAutoIncrement создаёт последовательность, привязывает её к колонке и
// сдвигает на max(col)+1, чтобы не столкнуться с уже вставленными строками.
func SetAutoIncrement(table, col string) ([]string, error) {
	b := &builder{}
	tbl, c, seq := b.q(table), b.q(col), b.q(SequenceName(table, col))
	b.add("CREATE SEQUENCE IF NOT EXISTS %s AS integer OWNED BY %s.%s", seq, tbl, c)
	b.add("ALTER TABLE %s ALTER COLUMN %s SET DEFAULT nextval('%s')", tbl, c, seq)
	b.add("SELECT setval('%s', COALESCE(MAX(%s), 0) + 1, false) FROM %s", seq, c, tbl)
	return b.result()
}

func DropAutoIncrement(table, col string) ([]string, error) {
	b := &builder{}
	b.add("ALTER TABLE %s ALTER COLUMN %s DROP DEFAULT", b.q(table), b.q(col))
	b.add("DROP SEQUENCE IF EXISTS %s", b.q(SequenceName(table, col)))
	return b.result()
}

// AlterField строит план изменения поля from → to. Порядок: переименование,
// снятие автоинкремента и ограничений, смена типа, установка ограничений,
// автоинкремент, default.
func AlterField(table string, from, to schema.FieldDefinition) ([]string, error) {
	var out []string
	step := func(stmts []string, err error) error {
		if err != nil {
			return err
		}
		out = append(out, stmts...)
		return nil
	}

	if from.Name != to.Name {
		if err := step(RenameColumn(table, from, to.Name)); err != nil {
			return nil, err
		}
	}
	col := to.Name

	oldLit, err := literalDefault(from)
	if err != nil {
		return nil, err
	}
	// текущий DEFAULT колонки; "NULL" эквивалентен отсутствию
	cur := oldLit
	if cur == "NULL" {
		cur = ""
	}

	if from.IsAutoIncrement && !to.IsAutoIncrement {
		if err := step(DropAutoIncrement(table, col)); err != nil {
			return nil, err
		}
	}
	if from.IsPrimaryKey && !to.IsPrimaryKey {
		if err := step(DropPrimaryKey(table, col)); err != nil {
			return nil, err
		}
	}
	if hasUniqueConstraint(from) && !hasUniqueConstraint(to) {
		if err := step(DropUnique(table, col)); err != nil {
			return nil, err
		}
	}
	if from.IsRequired && !to.IsRequired {
		if err := step(DropNotNull(table, col)); err != nil {
			return nil, err
		}
	}

	if from.FieldType != to.FieldType {
		if cur != "" {
			if err := step(DropDefault(table, col)); err != nil {
				return nil, err
			}
			cur = ""
		}
		if err := step(AlterColumnType(table, col, to.FieldType)); err != nil {
			return nil, err
		}
	}

	if to.IsPrimaryKey && !from.IsPrimaryKey {
		if err := step(SetPrimaryKey(table, col)); err != nil {
			return nil, err
		}
	}
	if hasUniqueConstraint(to) && !hasUniqueConstraint(from) {
		if err := step(SetUnique(table, col)); err != nil {
			return nil, err
		}
	}
	if to.IsRequired && !from.IsRequired {
		if err := step(SetNotNull(table, col)); err != nil {
			return nil, err
		}
	}
	if to.IsAutoIncrement {
		if !from.IsAutoIncrement {
			if err := step(SetAutoIncrement(table, col)); err != nil {
				return nil, err
			}
		}
		return out, nil
	}

	want, err := literalDefault(to)
	if err != nil {
		return nil, err
	}
	if want == "NULL" {
		want = ""
	}
	switch {
	case want == cur:
	case want == "":
		if err := step(DropDefault(table, col)); err != nil {
			return nil, err
		}
	default:
		if err := step(SetDefault(table, to)); err != nil {
			return nil, err
		}
	}
	return out, nil
}
