package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalizeToken(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"barcode", "barcode"},
		{"  Qtd. Stock ", "qtd_stock"},
		{"Código Barras", "codigo_barras"},
		{"Cód. Barras", "cod_barras"},
		{"Preço_Unitário", "preco_unitario"},
		{"QUANTIDADE", "quantidade"},
		{"min-quantity", "min_quantity"},
		{"__name__", "name"},
		{"Localização", "localizacao"},
		{"PVP1", "pvp1"},
		{"", ""},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, NormalizeToken(tt.in))
		})
	}
}

func TestRemoveDiacritics(t *testing.T) {
	assert.Equal(t, "Descricao", RemoveDiacritics("Descrição"))
	assert.Equal(t, "Nguyen Nhat Anh", RemoveDiacritics("Nguyễn Nhật Ánh"))
}

func TestFoldName(t *testing.T) {
	assert.Equal(t, "ferramentas eléctricas", FoldName("  Ferramentas   Eléctricas "))
	assert.Equal(t, FoldName("TOOLS"), FoldName("tools"))
}
