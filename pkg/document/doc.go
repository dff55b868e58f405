/*
Package document holds the decoded configuration tree and the pure
operations the loader runs over it.

	+-----------+     +-----------+
	|   JSON    |     |   YAML    |
	|  Parser   |     |  Parser   |
	+-----+-----+     +-----+-----+
	      |                 |
	      +--------+--------+
	               |
	         +-----+-----+
	         |  Document |
	         +-----+-----+
	               |
	     +---------+---------+
	     |                   |
	+----+-----+       +-----+------+
	|  Merge   |       | SecretKeys |
	+----------+       +------------+

🔄 Flow:
1. Parse dispatches on file extension (.json, .yaml, .yml)
2. Normalize makes both formats agree on map, array and number shapes
3. Merge layers an environment document over a base document
4. SecretKeys finds leaf keys ending in "Secret"

🔍 Example:

	doc, err := document.Parse(ctx, "config/development.yaml", data)
	if err != nil {
		return err
	}
	merged := document.Merge(base, doc)
*/
package document
