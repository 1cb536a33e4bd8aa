package service

import (
	"fmt"
	"os"
	"strings"

	"inventory-backend/internal/domains/itemimport/model"
	"inventory-backend/internal/shared/utils"

	"gopkg.in/yaml.v3"
)

// ========================================
// ALIAS TABLE
// ========================================

// DefaultAliases: mỗi canonical field có list alias theo thứ tự ưu tiên.
// Alias được normalize cùng cách với header trước khi so khớp.
var DefaultAliases = map[string][]string{
	model.FieldBarcode:     {"barcode", "codigo_barras", "código_barras", "cód._barras", "cod._barras", "codigo", "ean"},
	model.FieldName:        {"name", "nome", "artigo", "produto"},
	model.FieldDescription: {"description", "descricao", "descrição"},
	model.FieldCategory:    {"category", "categoria"},
	model.FieldQuantity:    {"quantity", "quantidade", "qtd", "qtd._stock", "qtd_stock", "stock"},
	model.FieldMinQuantity: {"min_quantity", "minquantity", "quantidade_minima", "qtd_minima"},
	model.FieldUnitPrice:   {"unit_price", "unitprice", "preco_unitario", "preço_unitario", "custo_unitário", "preco", "preço", "pvp", "pvp1", "price"},
	model.FieldLocation:    {"location", "localizacao", "localização"},
	model.FieldSupplier:    {"supplier", "fornecedor"},
}

// AliasTable là synonym table đã normalize, read-only sau khi build.
type AliasTable struct {
	aliases map[string][]string
}

// NewAliasTable build table từ DefaultAliases, các alias trong extra được
// nối vào sau alias mặc định của field tương ứng.
func NewAliasTable(extra map[string][]string) (*AliasTable, error) {
	t := &AliasTable{aliases: make(map[string][]string, len(model.CanonicalFields))}

	for _, field := range model.CanonicalFields {
		t.add(field, DefaultAliases[field])
	}

	for field, aliases := range extra {
		if !model.IsCanonicalField(field) {
			return nil, fmt.Errorf("unknown canonical field %q in alias overrides", field)
		}
		t.add(field, aliases)
	}

	return t, nil
}

func (t *AliasTable) add(field string, aliases []string) {
	seen := make(map[string]bool, len(t.aliases[field]))
	for _, a := range t.aliases[field] {
		seen[a] = true
	}
	for _, a := range aliases {
		token := utils.NormalizeToken(a)
		if token == "" || seen[token] {
			continue
		}
		seen[token] = true
		t.aliases[field] = append(t.aliases[field], token)
	}
}

// Aliases trả về alias đã normalize của field.
func (t *AliasTable) Aliases(field string) []string {
	return t.aliases[field]
}

// aliasFile là format YAML của IMPORT_ALIASES_FILE:
//
//	aliases:
//	  barcode: [ref, sku_code]
//	  unit_price: ["prix unitaire"]
type aliasFile struct {
	Aliases map[string][]string `yaml:"aliases"`
}

// LoadAliasFile đọc alias overrides từ file YAML.
func LoadAliasFile(path string) (map[string][]string, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read alias file: %w", err)
	}
	return ParseAliasYAML(raw)
}

func ParseAliasYAML(raw []byte) (map[string][]string, error) {
	var f aliasFile
	if err := yaml.Unmarshal(raw, &f); err != nil {
		return nil, fmt.Errorf("failed to parse alias file: %w", err)
	}
	for field := range f.Aliases {
		if !model.IsCanonicalField(field) {
			return nil, fmt.Errorf("unknown canonical field %q in alias file", field)
		}
	}
	return f.Aliases, nil
}

// ========================================
// HEADER RESOLUTION
// ========================================

// ColumnMap bind canonical field => column index của file.
type ColumnMap struct {
	index   map[string]int
	headers []string
}

// Resolve map header row sang canonical fields. Với mỗi field, duyệt alias
// theo thứ tự ưu tiên, alias đầu tiên khớp một cột chưa bị bind sẽ thắng.
// Thiếu bất kỳ field nào trong required => *model.MissingRequiredColumnsError.
func (t *AliasTable) Resolve(header []string, required []string) (*ColumnMap, error) {
	tokens := make([]string, len(header))
	for i, h := range header {
		tokens[i] = utils.NormalizeToken(h)
	}

	cm := &ColumnMap{
		index:   make(map[string]int, len(model.CanonicalFields)),
		headers: header,
	}
	bound := make(map[int]bool, len(header))

	for _, field := range model.CanonicalFields {
	aliasLoop:
		for _, alias := range t.aliases[field] {
			for i, token := range tokens {
				if token == alias && !bound[i] {
					cm.index[field] = i
					bound[i] = true
					break aliasLoop
				}
			}
		}
	}

	var missing []string
	for _, field := range required {
		if _, ok := cm.index[field]; !ok {
			missing = append(missing, field)
		}
	}
	if len(missing) > 0 {
		return nil, &model.MissingRequiredColumnsError{Missing: missing, Headers: header}
	}

	return cm, nil
}

// Width là số cột của header, dùng cho cardinality check.
func (m *ColumnMap) Width() int {
	return len(m.headers)
}

func (m *ColumnMap) Has(field string) bool {
	_, ok := m.index[field]
	return ok
}

// Value trả về cell đã trim của field trong row, "" nếu field không được map.
func (m *ColumnMap) Value(cells []string, field string) string {
	i, ok := m.index[field]
	if !ok || i >= len(cells) {
		return ""
	}
	return strings.TrimSpace(cells[i])
}

// Sources trả về canonical field => header gốc, dùng cho report.
func (m *ColumnMap) Sources() map[string]string {
	out := make(map[string]string, len(m.index))
	for field, i := range m.index {
		out[field] = strings.TrimSpace(m.headers[i])
	}
	return out
}
