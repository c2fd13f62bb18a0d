// Package terminal plays a single session in a terminal using tcell.
//
// The board is drawn one glyph per cell: '.' plain, '#' bumper, 'O' hole,
// '*' star, with the marble as '@' (or '$' once every board is cleared).
// Arrow keys, hjkl and wasd roll the marble, r restarts and q or Esc quits.
// The clock runs locally at the session's tick rate.
package terminal
