package service

import "strings"

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// Validate checks the parameters and fills in defaults
func (p *SearchParams) Validate() error {
	if !p.Spigot && !p.Modrinth && !p.Hangar {
		return ErrNoRegistries
	}
	p.Query = strings.TrimSpace(p.Query)
	if p.Query != "" && !p.Name && !p.Description && !p.Author {
		return ErrNoFields
	}
	if p.Sort == "" {
		p.Sort = SortDownloads
	} else if _, err := ParseSort(string(p.Sort)); err != nil {
		return err
	}
	if p.Limit < 0 || p.Offset < 0 {
		return ErrInvalidPagination
	}
	if p.Limit == 0 {
		p.Limit = DefaultPageSize
	}
	if p.Limit > MaxPageSize {
		p.Limit = MaxPageSize
	}
	return nil
}

// Pattern returns the ILIKE pattern matching Query as a literal substring
func (p *SearchParams) Pattern() string {
	return "%" + likeEscaper.Replace(p.Query) + "%"
}
