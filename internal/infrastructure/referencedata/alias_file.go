package referencedata

import (
	"fmt"
	"os"
	"strings"

	"github.com/bytedance/sonic"
	"github.com/go-playground/validator/v10"
	"github.com/riskibarqy/fixture-reconciler/internal/domain/club"
)

type aliasFile struct {
	Clubs     []aliasFileClub    `json:"clubs" validate:"required,min=2,dive"`
	Rivalries []aliasFileRivalry `json:"rivalries" validate:"omitempty,dive"`
}

type aliasFileClub struct {
	Name    string   `json:"name" validate:"required,max=120"`
	Aliases []string `json:"aliases" validate:"omitempty,dive,required,max=120"`
}

type aliasFileRivalry struct {
	Name  string   `json:"name" validate:"required"`
	Clubs []string `json:"clubs" validate:"required,len=2,dive,required"`
}

// LoadAliasFile reads club reference data from a JSON document:
//
//	{"clubs":[{"name":"Arsenal","aliases":["ARS"]}],
//	 "rivalries":[{"name":"North London derby","clubs":["Arsenal","Tottenham Hotspur"]}]}
func LoadAliasFile(path string) (*club.AliasTable, error) {
	raw, err := os.ReadFile(strings.TrimSpace(path))
	if err != nil {
		return nil, fmt.Errorf("read alias file: %w", err)
	}
	return ParseAliasJSON(raw)
}

func ParseAliasJSON(raw []byte) (*club.AliasTable, error) {
	var doc aliasFile
	if err := sonic.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("decode alias file: %w", err)
	}
	if err := validator.New().Struct(doc); err != nil {
		return nil, fmt.Errorf("validate alias file: %w", err)
	}

	clubs := make([]club.Club, 0, len(doc.Clubs))
	for _, item := range doc.Clubs {
		clubs = append(clubs, club.Club{Name: item.Name, Aliases: item.Aliases})
	}
	rivalries := make([]club.Rivalry, 0, len(doc.Rivalries))
	for _, item := range doc.Rivalries {
		rivalries = append(rivalries, club.Rivalry{Name: item.Name, Clubs: [2]string{item.Clubs[0], item.Clubs[1]}})
	}

	table, err := club.NewAliasTable(clubs, rivalries)
	if err != nil {
		return nil, fmt.Errorf("build alias table: %w", err)
	}
	return table, nil
}
